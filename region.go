package hxbridge

// Region is the layout capability tag a component declares. The Composer
// places components by region, never by their concrete type.
type Region string

const (
	// RegionControl puts the component in the control bar.
	// Buttons, filters and pickers usually live here.
	RegionControl Region = "control"

	// RegionContent puts the component in the content sub-region.
	// This is the default.
	RegionContent Region = "content"
)

// Element ids of the fixed layout skeleton.
const (
	ControlRegionID     = "hx-control"
	ContentRegionID     = "hx-content"
	ContentSubRegionID  = "hx-content-body"
	ToastContainerID    = "toasts"
	componentAttr       = "data-component"
	componentIDAttr     = "data-component-id"
	componentConfigAttr = "data-config"
)

// ComponentSelector matches every component root element in a document.
const ComponentSelector = "[" + componentAttr + "][" + componentIDAttr + "]"

// DOMID returns the element id the Composer gives a component root. Ids
// are namespaced by kind so two kinds may share a component id.
func DOMID(kind, id string) string {
	return "hx-" + kind + "-" + id
}
