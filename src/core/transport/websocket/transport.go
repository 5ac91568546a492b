package websocket

import (
	"fmt"
	"net/http"
	"sync"

	"voice-relay-server/src/core/utils"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Transport 中继 WebSocket 传输层，负责升级请求并跟踪活跃连接
type Transport struct {
	logger            *utils.Logger
	activeConnections sync.Map
	upgrader          *websocket.Upgrader
}

// NewTransport 创建WebSocket传输层
func NewTransport(logger *utils.Logger) *Transport {
	return &Transport{
		logger: logger,
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true // 中继平台的连接不带浏览器 Origin
			},
		},
	}
}

// Accept 升级请求并登记连接，调用方在处理结束后需调用 Release
func (t *Transport) Accept(w http.ResponseWriter, r *http.Request) (*Connection, error) {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("WebSocket升级失败: %w", err)
	}

	clientID := uuid.New().String()
	wsConn := NewConnection(clientID, conn)
	t.activeConnections.Store(clientID, wsConn)
	t.logger.Info("WebSocket客户端 %s 连接已建立, path=%s", clientID, r.URL.Path)
	return wsConn, nil
}

// Release 关闭连接并移出活跃列表
func (t *Transport) Release(conn *Connection) {
	if conn == nil {
		return
	}
	t.activeConnections.Delete(conn.GetID())
	if err := conn.Close(); err != nil {
		t.logger.Debug("关闭连接 %s: %v", conn.GetID(), err)
	}
	t.logger.Info("WebSocket客户端 %s 连接已释放", conn.GetID())
}

// GetActiveConnectionCount 获取活跃连接数
func (t *Transport) GetActiveConnectionCount() int {
	count := 0
	t.activeConnections.Range(func(key, value interface{}) bool {
		count++
		return true
	})
	return count
}

// Stop 关闭所有活动连接
func (t *Transport) Stop() {
	t.logger.Info("关闭WebSocket传输层, 活跃连接: %d", t.GetActiveConnectionCount())
	t.activeConnections.Range(func(key, value interface{}) bool {
		if conn, ok := value.(*Connection); ok {
			conn.Close()
		}
		t.activeConnections.Delete(key)
		return true
	})
}

// GetType 获取传输类型
func (t *Transport) GetType() string {
	return "websocket"
}
