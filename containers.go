package knackpy

// generateContainers derives one Container per queryable object and per view
// declared in metadata. Pure transform, no I/O; called once at App
// construction.
func generateContainers(metadata *Application) []*Container {
	var containers []*Container

	for _, obj := range metadata.Objects {
		containers = append(containers, &Container{
			ObjKey: obj.Key,
			Name:   obj.Name,
		})
	}

	for _, scene := range metadata.Scenes {
		for _, view := range scene.Views {
			containers = append(containers, &Container{
				ViewKey:  view.Key,
				SceneKey: scene.Key,
				Name:     view.Name,
			})
		}
	}

	return containers
}

// Containers returns every queryable container in the app, objects first, in
// metadata order.
func (a *App) Containers() []*Container {
	return a.containers
}

// FindContainer resolves a user-supplied identifier to exactly one container.
// The identifier is matched exactly against each container's object key, view
// key, and display name. More than one match is an *AmbiguousIdentifierError
// (a display name can collide with another container's key, or two containers
// can share a name); zero matches is an *UnknownContainerError.
func (a *App) FindContainer(identifier string) (*Container, error) {
	var matches []*Container

	for _, c := range a.containers {
		if identifier == c.ObjKey || identifier == c.ViewKey || identifier == c.Name {
			matches = append(matches, c)
		}
	}

	if len(matches) > 1 {
		return nil, &AmbiguousIdentifierError{Identifier: identifier, Matches: len(matches)}
	}
	if len(matches) == 0 {
		return nil, &UnknownContainerError{Identifier: identifier}
	}
	return matches[0], nil
}

// resolveIdentifier applies the caller-boundary convenience rule: an empty
// identifier is allowed only when the record cache currently holds data for
// exactly one container, in which case that container's key is used.
func (a *App) resolveIdentifier(identifier string) (string, error) {
	if identifier != "" {
		return identifier, nil
	}
	keys := a.cache.Keys()
	if len(keys) == 1 {
		return keys[0], nil
	}
	return "", &MissingIdentifierError{Cached: len(keys)}
}
