package mqtt

import (
	"fmt"
)

// Subscribe adds filter to the route table and subscribes to it.
//
// Filters may use the + (single level) and # (multi level) wildcards, e.g.
// "tradein/resolver/resolution/+". A route is replayed after each
// reconnect until Unsubscribe removes it; subscribing the same filter
// again replaces its handler. A filter the broker rejects is not kept.
func (c *Client) Subscribe(filter string, qos byte, handler MessageHandler) error {
	switch {
	case filter == "":
		return ErrInvalidTopic
	case qos > maxQoS:
		return ErrInvalidQoS
	case handler == nil:
		return fmt.Errorf("%w: handler cannot be nil", ErrSubscribeFailed)
	case !c.IsConnected():
		return ErrNotConnected
	}

	c.routes.put(route{filter: filter, qos: qos, handler: handler})
	token := c.conn.Subscribe(filter, qos, c.deliver(handler))
	if err := await(token, defaultPublishTimeout, ErrSubscribeFailed); err != nil {
		c.routes.drop(filter)
		return err
	}
	return nil
}

// Unsubscribe removes the route for the exact filter string.
// Messages already in flight may still be delivered.
func (c *Client) Unsubscribe(filter string) error {
	if filter == "" {
		return ErrInvalidTopic
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.routes.drop(filter)
	return await(c.conn.Unsubscribe(filter), defaultPublishTimeout, ErrUnsubscribeFailed)
}

// SubscriptionCount returns the number of routes in the table.
func (c *Client) SubscriptionCount() int {
	return c.routes.len()
}

// HasSubscription reports whether filter is routed, by exact string.
func (c *Client) HasSubscription(filter string) bool {
	return c.routes.has(filter)
}
