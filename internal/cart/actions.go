package cart

// Action is a cart mutation. The set is closed: every action lives in this
// package and supplies its own reduction, so a new action cannot compile
// without one.
type Action interface {
	apply(State) State
	persists() bool
}

// AddOrUpdateLine upserts a line by product. An existing line gets its
// quantity replaced, not incremented.
type AddOrUpdateLine struct {
	Line Line
}

func (a AddOrUpdateLine) apply(s State) State {
	lines := make([]Line, 0, len(s.Lines)+1)
	replaced := false
	for _, l := range s.Lines {
		if l.ProductID == a.Line.ProductID {
			lines = append(lines, a.Line)
			replaced = true
			continue
		}
		lines = append(lines, l)
	}
	if !replaced {
		lines = append(lines, a.Line)
	}
	s.Lines = lines
	return s
}

func (AddOrUpdateLine) persists() bool { return true }

// RemoveLine drops the line for a product. Removing an absent product is a no-op.
type RemoveLine struct {
	ProductID string
}

func (a RemoveLine) apply(s State) State {
	lines := make([]Line, 0, len(s.Lines))
	for _, l := range s.Lines {
		if l.ProductID != a.ProductID {
			lines = append(lines, l)
		}
	}
	s.Lines = lines
	return s
}

func (RemoveLine) persists() bool { return true }

type SetShippingAddress struct {
	Address ShippingAddress
}

func (a SetShippingAddress) apply(s State) State {
	s.ShippingAddress = a.Address
	return s
}

func (SetShippingAddress) persists() bool { return true }

type SetPaymentMethod struct {
	Method string
}

func (a SetPaymentMethod) apply(s State) State {
	s.PaymentMethod = a.Method
	return s
}

func (SetPaymentMethod) persists() bool { return true }

// Clear resets lines, address and payment method. Used after an order is
// placed and on logout.
type Clear struct{}

func (Clear) apply(s State) State {
	d := DefaultState()
	d.IsDrawerOpen = s.IsDrawerOpen
	return d
}

func (Clear) persists() bool { return true }

type OpenDrawer struct{}

func (OpenDrawer) apply(s State) State {
	s.IsDrawerOpen = true
	return s
}

func (OpenDrawer) persists() bool { return false }

type CloseDrawer struct{}

func (CloseDrawer) apply(s State) State {
	s.IsDrawerOpen = false
	return s
}

func (CloseDrawer) persists() bool { return false }

// Reduce returns the state that results from applying a to s. s is not modified.
func Reduce(s State, a Action) State {
	return a.apply(s.clone())
}
