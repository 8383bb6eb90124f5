package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// streamComments upgrades to a websocket and pushes every new comment on the
// post as a JSON message until either side goes away.
func (s *Server) streamComments(c *gin.Context) {
	postID := c.Param("id")
	if _, err := s.deps.Store.GetPost(c.Request.Context(), postID); err != nil {
		s.writeError(c, err)
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.deps.Logger.Warn("websocket upgrade failed", "post_id", postID, "error", err)
		return
	}
	defer conn.Close()

	comments, cancel := s.deps.Hub.Subscribe(postID)
	defer cancel()

	// The client never sends anything; reading only detects a closed peer.
	closed := make(chan struct{})
	_ = conn.SetReadDeadline(time.Time{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case comment, ok := <-comments:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "subscriber too slow"),
					time.Now().Add(writeWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(comment); err != nil {
				return
			}
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}
