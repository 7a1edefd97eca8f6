package main

import (
	"context"
	"fmt"
	"log/slog"
)

// attachHeader prints the cart badge to stderr whenever the cart changes.
// The signal carries no data, so the count is re-fetched from the server;
// the local view is used when that fails.
func (c *cli) attachHeader(ctx context.Context) {
	c.app.Broadcaster.Subscribe(func() {
		count := c.app.Cart.ItemCount()
		if c.app.Session.Authenticated() {
			loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.HTTPTimeout)
			cart, err := c.app.Cart.Load(loadCtx)
			cancel()
			if err == nil {
				count = cart.ItemCount()
			} else {
				c.logger.Debug("header refresh failed", slog.String("error", err.Error()))
			}
		}
		fmt.Fprintf(c.errOut, "[cart: %s]\n", plural(count, "item"))
	})
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
