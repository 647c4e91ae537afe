package template

// Context carries the variables available to parameter templates.
type Context struct {
	values map[string]interface{}
}

// NewContext creates a context for a render of workflow.
func NewContext(workflow string) *Context {
	return &Context{
		values: map[string]interface{}{
			"workflow": workflow,
		},
	}
}

// With returns a copy of the context with key set to value.
func (c *Context) With(key string, value interface{}) *Context {
	values := make(map[string]interface{}, len(c.Values())+1)
	for k, v := range c.Values() {
		values[k] = v
	}
	values[key] = value
	return &Context{values: values}
}

// Values returns the variables as a template data map.
func (c *Context) Values() map[string]interface{} {
	if c == nil || c.values == nil {
		return map[string]interface{}{}
	}
	return c.values
}
