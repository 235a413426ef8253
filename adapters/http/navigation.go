package http

type NavLink struct {
	Href   string
	Label  string
	Active bool
}

var Links = []NavLink{
	{Href: "/", Label: "Opportunities"},
	{Href: "/profile", Label: "Profile"},
	{Href: "/institution", Label: "Institution"},
}

// Active marks the link whose href equals currentPath exactly.
func Active(currentPath string) []NavLink {
	out := make([]NavLink, len(Links))
	for i, l := range Links {
		l.Active = l.Href == currentPath
		out[i] = l
	}
	return out
}
