package gateway

import (
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/primus/primacron/codec"
	"github.com/primus/primacron/config"
	"github.com/primus/primacron/directory"
	"github.com/primus/primacron/logger"
	"github.com/primus/primacron/peer"
	"github.com/primus/primacron/session"
	"github.com/primus/primacron/transport/wsconn"
	"github.com/primus/primacron/validate"
	"github.com/primus/primacron/version"
)

// Built bundles every component New wires together, so callers (mainly
// cmd/primacron) can start and stop it as one unit via Node.
type Built struct {
	Node    *Node
	Manager *Manager
}

// New wires a complete gateway node from cfg: a Redis-backed directory
// client, the session directory, validation pipeline, peer broadcaster and
// inbound handler, connection manager, and HTTP front door, all bound to
// one *gateway.Node.
func New(cfg *config.Config, allowedOrigins []string, log *zap.SugaredLogger) *Built {
	if log == nil {
		log = logger.Logger
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Directory.Addr,
		Password: cfg.Directory.Password,
		DB:       cfg.Directory.DB,
	})
	dirClient := directory.NewRedisClient(rdb, log)

	sessionDir := session.New(dirClient, cfg.Namespace, time.Duration(cfg.Timeout)*time.Second, log)
	pipeline := validate.New(log)
	broadcaster := peer.New(cfg.Broadcast, &http.Client{Timeout: 10 * time.Second}, log)

	payloadCodec := codec.JSON()

	manager := NewManager(sessionDir, pipeline, broadcaster, payloadCodec, cfg.NodeURL(), DefaultIDGenerator, log)

	info := version.Get()
	inbound := peer.NewHandler(manager, payloadCodec, pipeline, info.PoweredBy(), log)

	checkOrigin := wsconn.CheckOriginAllowlist(allowedOrigins)
	upgrader := wsconn.New(checkOrigin)

	router := NewRouter(RouterConfig{
		EndpointPath:  cfg.Endpoint,
		BroadcastPath: cfg.Broadcast,
		RedirectURL:   cfg.Redirect,
		Upgrader:      upgrader,
		Manager:       manager,
		Broadcast:     inbound,
		Log:           log,
	}).WithAllowedOrigin(checkOrigin)

	addr := cfg.Address
	if cfg.Port != 0 {
		addr = addr + ":" + strconv.Itoa(cfg.Port)
	} else {
		addr = ":0"
	}

	node := NewNode(addr, router, manager, log)

	return &Built{Node: node, Manager: manager}
}
