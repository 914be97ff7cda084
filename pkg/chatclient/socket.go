package chatclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
)

// SocketHandlers receive decoded push events. Unset handlers are skipped.
// Handlers run on the socket's read goroutine.
type SocketHandlers struct {
	OnNewMessage  func(Message)
	OnOnlineUsers func([]int64)
	OnError       func(error)
}

// Socket is the live push channel. It only listens; all writes to the server
// go over HTTP.
type Socket struct {
	conn     *websocket.Conn
	handlers SocketHandlers
	once     sync.Once
	done     chan struct{}
}

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// DialSocket connects the push channel for userID and starts the read loop.
// baseURL is the service's HTTP base; the scheme is rewritten to ws/wss.
func DialSocket(ctx context.Context, baseURL string, userID int64, handlers SocketHandlers) (*Socket, error) {
	wsURL, err := pushURL(baseURL, userID)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial push channel: %w", err)
	}

	s := &Socket{
		conn:     conn,
		handlers: handlers,
		done:     make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

func (s *Socket) Close() error {
	s.once.Do(func() {
		close(s.done)
	})
	return s.conn.Close()
}

// Done is closed when the read loop exits, whether by Close or by the server
// dropping the connection.
func (s *Socket) Done() <-chan struct{} {
	return s.done
}

func (s *Socket) readLoop() {
	defer s.once.Do(func() {
		close(s.done)
	})

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
			default:
				if s.handlers.OnError != nil {
					s.handlers.OnError(err)
				}
			}
			return
		}
		s.dispatch(payload)
	}
}

func (s *Socket) dispatch(payload []byte) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		if s.handlers.OnError != nil {
			s.handlers.OnError(fmt.Errorf("decode push envelope: %w", err))
		}
		return
	}

	switch env.Event {
	case "newMessage":
		var message Message
		if err := json.Unmarshal(env.Data, &message); err != nil {
			if s.handlers.OnError != nil {
				s.handlers.OnError(fmt.Errorf("decode newMessage: %w", err))
			}
			return
		}
		if s.handlers.OnNewMessage != nil {
			s.handlers.OnNewMessage(message)
		}
	case "onlineUsers":
		var online []int64
		if err := json.Unmarshal(env.Data, &online); err != nil {
			if s.handlers.OnError != nil {
				s.handlers.OnError(fmt.Errorf("decode onlineUsers: %w", err))
			}
			return
		}
		if s.handlers.OnOnlineUsers != nil {
			s.handlers.OnOnlineUsers(online)
		}
	}
}

func pushURL(baseURL string, userID int64) (string, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}

	switch parsed.Scheme {
	case "http", "ws":
		parsed.Scheme = "ws"
	case "https", "wss":
		parsed.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}

	parsed.Path = "/ws"
	query := parsed.Query()
	query.Set("userId", strconv.FormatInt(userID, 10))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
