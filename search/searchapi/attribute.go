package searchapi

type Attribute struct {
	Name  string
	Value Value
}

// Attributes is an ordered collection of uniquely named values.
// Insertion order is kept for round trips and carries no query semantics.
type Attributes struct {
	list  []Attribute
	index map[string]int
}

func NewAttributes(attrs ...Attribute) *Attributes {
	a := &Attributes{
		index: make(map[string]int, len(attrs)),
	}
	for _, attr := range attrs {
		a.Set(attr.Name, attr.Value)
	}
	return a
}

// Set replaces the value of an existing attribute in place or appends a new one.
func (a *Attributes) Set(name string, v Value) *Attributes {
	if a.index == nil {
		a.index = map[string]int{}
	}
	if pos, ok := a.index[name]; ok {
		a.list[pos].Value = v
		return a
	}
	a.index[name] = len(a.list)
	a.list = append(a.list, Attribute{Name: name, Value: v})
	return a
}

func (a *Attributes) Get(name string) (Value, bool) {
	if a == nil {
		return Value{}, false
	}
	pos, ok := a.index[name]
	if !ok {
		return Value{}, false
	}
	return a.list[pos].Value, true
}

func (a *Attributes) Has(name string) bool {
	_, ok := a.Get(name)
	return ok
}

func (a *Attributes) Delete(name string) {
	pos, ok := a.index[name]
	if !ok {
		return
	}
	a.list = append(a.list[:pos], a.list[pos+1:]...)
	delete(a.index, name)
	for i := pos; i < len(a.list); i++ {
		a.index[a.list[i].Name] = i
	}
}

func (a *Attributes) Len() int {
	if a == nil {
		return 0
	}
	return len(a.list)
}

func (a *Attributes) Names() []string {
	names := make([]string, 0, a.Len())
	a.Each(func(attr Attribute) bool {
		names = append(names, attr.Name)
		return true
	})
	return names
}

// Each visits the attributes in insertion order until fn returns false.
func (a *Attributes) Each(fn func(attr Attribute) bool) {
	if a == nil {
		return
	}
	for _, attr := range a.list {
		if !fn(attr) {
			return
		}
	}
}

// Filter returns a new collection holding only the named attributes, in the original order.
// An empty name list keeps everything.
func (a *Attributes) Filter(names []string) *Attributes {
	res := NewAttributes()
	if len(names) == 0 {
		a.Each(func(attr Attribute) bool {
			res.Set(attr.Name, attr.Value)
			return true
		})
		return res
	}
	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[n] = struct{}{}
	}
	a.Each(func(attr Attribute) bool {
		if _, ok := wanted[attr.Name]; ok {
			res.Set(attr.Name, attr.Value)
		}
		return true
	})
	return res
}

func (a *Attributes) Equal(o *Attributes) bool {
	if a.Len() != o.Len() {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		l, r := a.list[i], o.list[i]
		if l.Name != r.Name || !l.Value.Equal(r.Value) {
			return false
		}
	}
	return true
}

// Map flattens the collection into plain go values, dropping the order.
func (a *Attributes) Map() map[string]any {
	m := make(map[string]any, a.Len())
	a.Each(func(attr Attribute) bool {
		m[attr.Name] = attr.Value.Any()
		return true
	})
	return m
}
