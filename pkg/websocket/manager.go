package websocket

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// Client 代表一个WebSocket连接的用户

type Client struct {
	UserID uint
	Conn   *websocket.Conn
	Send   chan []byte
}

// Manager 管理所有在线用户的WebSocket连接
// 用于好友事件的在线推送；用户不在线时事件直接丢弃（尽力而为）

type Manager struct {
	clients map[uint]*Client
	lock    sync.RWMutex
}

var manager = &Manager{
	clients: make(map[uint]*Client),
}

// GetManager 获取全局WebSocket管理器
func GetManager() *Manager {
	return manager
}

// AddClient 添加新连接
func (m *Manager) AddClient(userID uint, client *Client) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.clients[userID] = client
}

// RemoveClient 移除连接
func (m *Manager) RemoveClient(userID uint) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if c, ok := m.clients[userID]; ok {
		close(c.Send)
		delete(m.clients, userID)
	}
}

// IsOnline 判断用户是否在线
func (m *Manager) IsOnline(userID uint) bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	_, ok := m.clients[userID]
	return ok
}

// Push 推送事件给指定用户
// payload 会与事件类型合并后编码为JSON；不在线或通道已满时丢弃
// 读锁覆盖整个发送过程：RemoveClient 持写锁关闭通道，二者不会交错
func (m *Manager) Push(userID uint, event string, payload map[string]interface{}) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	client, ok := m.clients[userID]
	if !ok {
		return
	}

	data := map[string]interface{}{"type": event}
	for k, v := range payload {
		data[k] = v
	}
	msg, err := json.Marshal(data)
	if err != nil {
		return
	}

	select {
	case client.Send <- msg:
	default:
		// 通道已满，可能连接已断开
	}
}
