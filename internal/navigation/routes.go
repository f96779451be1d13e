package navigation

import "fmt"

// ScreenID identifies one screen of the app.
type ScreenID int

const (
	ScreenLogin ScreenID = iota
	ScreenRegister
	ScreenHome
	ScreenSearch
	ScreenCreate
	ScreenProfile
	ScreenPostDetail
	screenCount
)

// Root is one of the two navigation roots the gate can mount.
type Root int

const (
	RootAuth Root = iota
	RootMain
)

func (r Root) String() string {
	if r == RootMain {
		return "main"
	}
	return "auth"
}

// Icon names a tab bar glyph for its focused and unfocused states.
type Icon struct {
	Focused   string
	Unfocused string
}

// Route describes a screen.
type Route struct {
	Name string
	Root Root
	// Tab is true for screens reachable from the tab bar.
	Tab  bool
	Icon Icon
}

var routes = [screenCount]Route{
	ScreenLogin:      {Name: "Login", Root: RootAuth},
	ScreenRegister:   {Name: "Register", Root: RootAuth},
	ScreenHome:       {Name: "Home", Root: RootMain, Tab: true, Icon: Icon{Focused: "home", Unfocused: "home-outline"}},
	ScreenSearch:     {Name: "Search", Root: RootMain, Tab: true, Icon: Icon{Focused: "search", Unfocused: "search-outline"}},
	ScreenCreate:     {Name: "Create", Root: RootMain, Tab: true, Icon: Icon{Focused: "add-circle", Unfocused: "add-circle-outline"}},
	ScreenProfile:    {Name: "Profile", Root: RootMain, Tab: true, Icon: Icon{Focused: "person", Unfocused: "person-outline"}},
	ScreenPostDetail: {Name: "PostDetail", Root: RootMain},
}

// Route returns the static description of s.
func (s ScreenID) Route() Route {
	if s < 0 || s >= screenCount {
		panic(fmt.Sprintf("navigation: unknown screen %d", int(s)))
	}
	return routes[s]
}

func (s ScreenID) String() string { return s.Route().Name }

// Tabs returns the tab screens of root in display order.
func Tabs(root Root) []ScreenID {
	var out []ScreenID
	for s := ScreenID(0); s < screenCount; s++ {
		if routes[s].Root == root && routes[s].Tab {
			out = append(out, s)
		}
	}
	return out
}

// initial is the first screen mounted for each root.
func initial(root Root) ScreenID {
	if root == RootMain {
		return ScreenHome
	}
	return ScreenLogin
}
