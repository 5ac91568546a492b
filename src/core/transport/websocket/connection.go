package websocket

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// ErrConnectionClosed 连接已关闭后读取
var ErrConnectionClosed = errors.New("连接已关闭")

// Connection 对 gorilla 连接的封装
// 写操作串行化；关闭后写入为空操作，不返回错误
type Connection struct {
	id         string
	conn       *websocket.Conn
	writeMu    sync.Mutex
	closed     int32
	closeOnce  sync.Once
	lastActive int64
}

func NewConnection(id string, conn *websocket.Conn) *Connection {
	return &Connection{
		id:         id,
		conn:       conn,
		lastActive: time.Now().UnixNano(),
	}
}

func (c *Connection) GetID() string { return c.id }

func (c *Connection) GetType() string { return "websocket" }

// ReadMessage 读取一条消息，读循环只能有一个
func (c *Connection) ReadMessage() (int, []byte, error) {
	if c.IsClosed() {
		return 0, nil, ErrConnectionClosed
	}
	messageType, data, err := c.conn.ReadMessage()
	if err != nil {
		return 0, nil, err
	}
	atomic.StoreInt64(&c.lastActive, time.Now().UnixNano())
	return messageType, data, nil
}

// WriteJSON 发送一条 JSON 消息
func (c *Connection) WriteJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.IsClosed() {
		return nil
	}
	if err := c.conn.WriteJSON(v); err != nil {
		return err
	}
	atomic.StoreInt64(&c.lastActive, time.Now().UnixNano())
	return nil
}

// Close 关闭连接，可重复调用
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		atomic.StoreInt32(&c.closed, 1)
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}

func (c *Connection) IsClosed() bool {
	return atomic.LoadInt32(&c.closed) == 1
}

func (c *Connection) GetLastActiveTime() time.Time {
	return time.Unix(0, atomic.LoadInt64(&c.lastActive))
}
