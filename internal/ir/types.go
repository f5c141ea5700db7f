package ir

// DocumentSpec is a compiled document definition: the objects to create,
// their plain property values and their links, in declaration order.
type DocumentSpec struct {
	Name    string       `json:"name"`
	Objects []ObjectSpec `json:"objects"`
}

// ObjectSpec declares one object of a DocumentSpec.
type ObjectSpec struct {
	Name       string              `json:"name"`
	Type       string              `json:"type"`
	Label      string              `json:"label,omitempty"`
	Properties IRObject            `json:"properties,omitempty"`
	Links      map[string][]string `json:"links,omitempty"` // property name -> target object names
}

// LinkNames returns the object's link property names in sorted order.
func (o ObjectSpec) LinkNames() []string {
	obj := make(IRObject, len(o.Links))
	for k := range o.Links {
		obj[k] = IRNull{}
	}
	return obj.SortedKeys()
}

// PropertyKind names the storage type of a property.
type PropertyKind string

const (
	KindFloat    PropertyKind = "float"
	KindInt      PropertyKind = "int"
	KindString   PropertyKind = "string"
	KindBool     PropertyKind = "bool"
	KindLink     PropertyKind = "link"
	KindLinkList PropertyKind = "link_list"
)

// IsLink reports whether the kind holds object references.
func (k PropertyKind) IsLink() bool {
	return k == KindLink || k == KindLinkList
}
