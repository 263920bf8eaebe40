package location

import "context"

// Disabled is the provider for hosts without location hardware.
type Disabled struct{}

func (Disabled) RequestPermission(context.Context) (Permission, error) {
	return Denied, ErrUnavailable
}

func (Disabled) CurrentPosition(context.Context, PositionOptions) (Coordinate, error) {
	return Coordinate{}, ErrUnavailable
}

func (Disabled) Subscribe(context.Context, Handler, WatchOptions) (Subscription, error) {
	return Subscription{}, ErrUnavailable
}

func (Disabled) Unsubscribe(Subscription) error {
	return nil
}
