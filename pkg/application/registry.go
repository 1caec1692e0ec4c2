package application

import "fmt"

// NotFoundError is returned when no configured application has the requested name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found application: %s", e.Name)
}

// Registry holds the configured applications in file order.
type Registry struct {
	apps []*Application
}

func NewRegistry(apps []*Application) *Registry {
	return &Registry{apps: apps}
}

// Resolve returns the first application whose name matches exactly.
func (r *Registry) Resolve(name string) (*Application, error) {
	for _, app := range r.apps {
		if app.Name == name {
			return app, nil
		}
	}
	return nil, &NotFoundError{Name: name}
}

// Names returns application names in configuration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.apps))
	for _, app := range r.apps {
		names = append(names, app.Name)
	}
	return names
}
