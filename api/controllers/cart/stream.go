package cart

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Abhijit5011/Electromart/api/middleware"
	"github.com/Abhijit5011/Electromart/api/responses"
	cartsvc "github.com/Abhijit5011/Electromart/internal/cart"
	pkgerrors "github.com/Abhijit5011/Electromart/pkg/errors"
	"github.com/Abhijit5011/Electromart/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// CountFeed delivers cart count changes for one owner.
type CountFeed interface {
	Subscribe(ctx context.Context, userID uuid.UUID) (<-chan cartsvc.CountEvent, func() error, error)
}

type counter interface {
	Count(ctx context.Context, userID uuid.UUID) (int64, error)
}

// CartStream upgrades to a websocket that pushes {"count": n} whenever the caller's cart changes.
// The current count is sent first.
func CartStream(svc counter, feed CountFeed, allowedOrigins []string, logg *logger.Logger) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || feed == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart stream unavailable"))
			return
		}
		userID, err := middleware.RequireUserID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		count, err := svc.Count(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		events, closeFeed, err := feed.Subscribe(ctx, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "subscribe cart changes"))
			return
		}
		defer func() { _ = closeFeed() }()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// the upgrader already wrote an HTTP error
			if logg != nil {
				logg.Warn(logg.WithField(ctx, "error", err.Error()), "cart stream upgrade failed")
			}
			return
		}
		defer conn.Close()

		go readPump(conn, cancel)

		if err := writeCount(conn, count); err != nil {
			return
		}

		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseGoingAway, "feed closed"),
						time.Now().Add(writeWait))
					return
				}
				if err := writeCount(conn, evt.Count); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			}
		}
	}
}

func writeCount(conn *websocket.Conn, count int64) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(cartsvc.CountEvent{Count: count})
}

// readPump drains client frames so pongs and close frames are processed.
func readPump(conn *websocket.Conn, done context.CancelFunc) {
	defer done()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
