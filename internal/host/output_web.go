package host

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const writeTimeout = 2 * time.Second

const previewPage = `<!doctype html>
<html>
<head><title>textdisplay preview</title>
<style>body{background:#111;margin:0;display:flex;height:100vh;align-items:center;justify-content:center}
img{image-rendering:pixelated;width:%dpx}</style></head>
<body><img id="frame" src="/frame.png">
<script>
const img = document.getElementById("frame");
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
ws.binaryType = "blob";
ws.onmessage = (ev) => {
  const url = URL.createObjectURL(ev.data);
  img.onload = () => URL.revokeObjectURL(url);
  img.src = url;
};
</script>
</body>
</html>`

// WebOutputHandler serves the latest frame over HTTP and pushes every new
// frame to websocket clients as a PNG message.
type WebOutputHandler struct {
	addr     string
	scale    int
	echo     *echo.Echo
	upgrader websocket.Upgrader
	info     func() interface{}
	log      *logrus.Entry

	mu      sync.Mutex
	latest  []byte
	width   int
	clients map[*websocket.Conn]struct{}
}

// NewWebOutputHandler builds the server; info, when set, backs GET /info.
func NewWebOutputHandler(addr string, info func() interface{}, logger logrus.FieldLogger) *WebOutputHandler {
	w := &WebOutputHandler{
		addr:    addr,
		scale:   8,
		info:    info,
		log:     logger.WithField("module", "web"),
		clients: make(map[*websocket.Conn]struct{}),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.GET("/", w.handleIndex)
	e.GET("/frame.png", w.handleFrame)
	e.GET("/info", w.handleInfo)
	e.GET("/ws", w.handleWebsocket)
	w.echo = e

	return w
}

func (w *WebOutputHandler) GetType() string {
	return "web"
}

// Handler exposes the routes without listening, for embedding and tests.
func (w *WebOutputHandler) Handler() http.Handler {
	return w.echo
}

// Start listens in the background.
func (w *WebOutputHandler) Start() {
	go func() {
		if err := w.echo.Start(w.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			w.log.Errorf("Server stopped: %v", err)
		}
	}()
	w.log.Infof("Preview at http://%s/", w.addr)
}

func (w *WebOutputHandler) Output(img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	frame := buf.Bytes()

	w.mu.Lock()
	defer w.mu.Unlock()

	w.latest = frame
	w.width = img.Bounds().Dx()
	for conn := range w.clients {
		if err := w.writeFrame(conn, frame); err != nil {
			w.log.Debugf("Dropping client %s: %v", conn.RemoteAddr(), err)
			delete(w.clients, conn)
			conn.Close()
		}
	}
	return nil
}

// writeFrame must be called with w.mu held.
func (w *WebOutputHandler) writeFrame(conn *websocket.Conn, frame []byte) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.BinaryMessage, frame)
}

func (w *WebOutputHandler) Close() error {
	w.mu.Lock()
	for conn := range w.clients {
		conn.Close()
		delete(w.clients, conn)
	}
	w.mu.Unlock()
	return w.echo.Close()
}

func (w *WebOutputHandler) handleIndex(c echo.Context) error {
	w.mu.Lock()
	width := w.width
	w.mu.Unlock()
	if width == 0 {
		width = 64
	}
	return c.HTML(http.StatusOK, fmt.Sprintf(previewPage, width*w.scale))
}

func (w *WebOutputHandler) handleFrame(c echo.Context) error {
	w.mu.Lock()
	frame := w.latest
	w.mu.Unlock()
	if frame == nil {
		return c.NoContent(http.StatusNoContent)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.Blob(http.StatusOK, "image/png", frame)
}

func (w *WebOutputHandler) handleInfo(c echo.Context) error {
	if w.info == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, w.info())
}

func (w *WebOutputHandler) handleWebsocket(c echo.Context) error {
	conn, err := w.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.clients[conn] = struct{}{}
	if w.latest != nil {
		if err := w.writeFrame(conn, w.latest); err != nil {
			delete(w.clients, conn)
			w.mu.Unlock()
			conn.Close()
			return nil
		}
	}
	w.mu.Unlock()
	w.log.Debugf("Client connected: %s", conn.RemoteAddr())

	// Frames only flow out; reading detects the client going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	w.mu.Lock()
	if _, ok := w.clients[conn]; ok {
		delete(w.clients, conn)
		conn.Close()
	}
	w.mu.Unlock()
	return nil
}
