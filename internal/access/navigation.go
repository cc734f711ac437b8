package access

// NavItem is one entry of the sidebar.
type NavItem struct {
	Path     string    `json:"path"`
	Title    string    `json:"title"`
	Icon     string    `json:"icon,omitempty"`
	Children []NavItem `json:"children,omitempty"`
}

// Navigation is the full sidebar, before permission filtering.
var Navigation = []NavItem{
	{Path: DashboardPath, Title: "لوحة التحكم", Icon: "dashboard"},
	{Path: "/projects", Title: "المشاريع", Icon: "apartment"},
	{Path: "/expenses", Title: "المصروفات", Icon: "payments"},
	{Path: "/budget", Title: "بنود الميزانية", Icon: "account_balance"},
	{Path: "/inventory", Title: "المخزون", Icon: "inventory", Children: []NavItem{
		{Path: "/inventory/items", Title: "الأصناف"},
		{Path: "/inventory/movements", Title: "حركة المخزون"},
	}},
	{Path: "/purchases", Title: "المشتريات", Icon: "shopping_cart"},
	{Path: "/journal", Title: "القيود اليومية", Icon: "menu_book"},
	{Path: "/hr", Title: "شؤون الموظفين", Icon: "badge", Children: []NavItem{
		{Path: "/employees", Title: "الموظفين"},
		{Path: "/salaries", Title: "الرواتب"},
	}},
	{Path: "/partners", Title: "العملاء والموردين", Icon: "groups", Children: []NavItem{
		{Path: "/customers", Title: "العملاء"},
		{Path: "/suppliers", Title: "الموردين"},
	}},
	{Path: "/audit-log", Title: "سجل العمليات", Icon: "history"},
	{Path: "/settings", Title: "الإعدادات", Icon: "settings", Children: []NavItem{
		{Path: "/users", Title: "المستخدمين"},
		{Path: "/jobs", Title: "الوظائف والصلاحيات"},
		{Path: "/settings", Title: "إعدادات النظام"},
	}},
}

// VisibleNavigation filters items down to what user may view. A group stays
// when the user can view it or at least one of its children.
func VisibleNavigation(user *User, items []NavItem) []NavItem {
	out := make([]NavItem, 0, len(items))
	for _, item := range items {
		if len(item.Children) == 0 {
			if HasPermission(user, item.Path, View) {
				out = append(out, item)
			}
			continue
		}
		children := VisibleNavigation(user, item.Children)
		if len(children) == 0 && !HasPermission(user, item.Path, View) {
			continue
		}
		item.Children = children
		out = append(out, item)
	}
	return out
}
