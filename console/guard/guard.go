package guard

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

type Route string

const (
	Dashboard Route = "/"
	Login     Route = "/login"
	Register  Route = "/register"
)

// AnnotationRoute is the cobra annotation a command uses to declare its route
const AnnotationRoute = "schedctl.route"

var (
	ErrUnknownRoute    = errors.New("unknown route")
	ErrLoginRequired   = errors.New("not logged in, run `schedctl login` first")
	ErrAlreadyLoggedIn = errors.New("already logged in, run `schedctl logout` first")
)

var protected = map[Route]bool{
	Dashboard: true,
	Login:     false,
	Register:  false,
}

// Identity is the part of the session the guard needs
type Identity interface {
	Authenticated() bool
	End() error
}

type Guard struct {
	id Identity
}

func New(id Identity) *Guard {
	return &Guard{id: id}
}

// Resolve returns where a visit to route actually lands. Protected routes
// without a token land on /login, public routes with a token land on /.
func Resolve(route Route, authenticated bool) (Route, error) {
	isProtected, ok := protected[route]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRoute, string(route))
	}
	switch {
	case isProtected && !authenticated:
		return Login, nil
	case !isProtected && authenticated:
		return Dashboard, nil
	}
	return route, nil
}

func (g *Guard) Enter(route Route) (Route, error) {
	return Resolve(route, g.id.Authenticated())
}

// Logout always lands on /login, the store error is still reported
func (g *Guard) Logout() (Route, error) {
	return Login, g.id.End()
}

// RouteOf finds the route declared by cmd or its nearest ancestor
func RouteOf(cmd *cobra.Command) (Route, bool) {
	for c := cmd; c != nil; c = c.Parent() {
		if r, ok := c.Annotations[AnnotationRoute]; ok {
			return Route(r), true
		}
	}
	return "", false
}

// Annotate marks cmd as belonging to route
func Annotate(cmd *cobra.Command, route Route) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = make(map[string]string)
	}
	cmd.Annotations[AnnotationRoute] = string(route)
	return cmd
}

// Check is meant for a root PersistentPreRunE. Commands that declare no
// route (version, help) always pass.
func (g *Guard) Check(cmd *cobra.Command) error {
	route, ok := RouteOf(cmd)
	if !ok {
		return nil
	}
	dest, err := g.Enter(route)
	if err != nil {
		return err
	}
	if dest == route {
		return nil
	}
	if dest == Login {
		return ErrLoginRequired
	}
	return ErrAlreadyLoggedIn
}
