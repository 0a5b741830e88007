package mock

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Fixture files describe routes in YAML:
//
//	routes:
//	  - method: GET
//	    path: /users/{id}
//	    status: 200
//	    headers:
//	      Content-Type: application/json
//	    body: '{"id": "{id}"}'
type fixtureFile struct {
	Routes []fixtureRoute `yaml:"routes"`
}

type fixtureRoute struct {
	Method  string            `yaml:"method"`
	Path    string            `yaml:"path"`
	Status  int               `yaml:"status"`
	Headers map[string]string `yaml:"headers"`
	Body    string            `yaml:"body"`
}

// LoadRoutes parses a YAML fixture file into routes.
func LoadRoutes(path string) ([]*Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture file: %w", err)
	}

	var file fixtureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse fixture file %s: %w", path, err)
	}

	routes := make([]*Route, 0, len(file.Routes))
	for i, fr := range file.Routes {
		if fr.Method == "" || fr.Path == "" {
			return nil, fmt.Errorf("fixture file %s: route %d needs method and path", path, i)
		}
		status := fr.Status
		if status == 0 {
			status = 200
		}
		route := NewRoute(fr.Method, fr.Path)
		route.Response = &StubResponse{
			StatusCode: status,
			Headers:    fr.Headers,
			Body:       fr.Body,
		}
		routes = append(routes, route)
	}
	return routes, nil
}

// LoadFile registers all routes from a YAML fixture file.
func (m *Client) LoadFile(path string) error {
	routes, err := LoadRoutes(path)
	if err != nil {
		return err
	}
	m.routes = append(m.routes, routes...)
	return nil
}
