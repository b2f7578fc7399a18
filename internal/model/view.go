package model

// View identifies one of the portal's top-level views.
type View string

// Views.
const (
	ViewItems      View = "items"
	ViewScheduling View = "scheduling"
	ViewCompliance View = "compliance"
	ViewCampaigns  View = "campaigns"
	ViewAnalytics  View = "analytics"
	ViewVendors    View = "vendors"
)

// Views returns all views in navigation order.
func Views() []View {
	return []View{ViewItems, ViewScheduling, ViewCompliance, ViewCampaigns, ViewAnalytics, ViewVendors}
}

// ParseView returns the view for key, or ViewItems and false if unknown.
func ParseView(key string) (View, bool) {
	for _, v := range Views() {
		if string(v) == key {
			return v, true
		}
	}
	return ViewItems, false
}

// Path is the URL path serving the view.
func (v View) Path() string {
	return "/" + string(v)
}

// Title is the navigation label.
func (v View) Title() string {
	switch v {
	case ViewItems:
		return "E-Waste Items"
	case ViewScheduling:
		return "Scheduling"
	case ViewCompliance:
		return "Compliance"
	case ViewCampaigns:
		return "Campaigns"
	case ViewAnalytics:
		return "Analytics"
	case ViewVendors:
		return "Vendors"
	default:
		return string(v)
	}
}
