package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dwizi/autobot/internal/orchestrator"
)

func (c *Connector) Start(ctx context.Context) error {
	c.beat(func() { c.reporter.Starting(componentName, "starting") })
	if c.token == "" {
		c.beat(func() { c.reporter.Disabled(componentName, "token missing") })
		c.logger.Info("connector disabled, token missing")
		<-ctx.Done()
		return nil
	}
	if c.dispatcher == nil {
		c.beat(func() { c.reporter.Disabled(componentName, "dispatcher missing") })
		c.logger.Info("connector disabled, dispatcher missing")
		<-ctx.Done()
		return nil
	}

	c.beat(func() { c.reporter.Beat(componentName, "gateway session loop active") })
	c.logger.Info("connector started", "mode", "gateway")
	for {
		if ctx.Err() != nil {
			return c.stopped()
		}
		if err := c.runSession(ctx); err != nil {
			if ctx.Err() != nil {
				return c.stopped()
			}
			c.beat(func() { c.reporter.Degrade(componentName, "gateway session error", err) })
			c.logger.Error("discord session ended, reconnecting", "error", err)
			select {
			case <-ctx.Done():
				return c.stopped()
			case <-time.After(2 * time.Second):
			}
		}
	}
}

func (c *Connector) stopped() error {
	c.beat(func() { c.reporter.Stopped(componentName, "stopped") })
	c.logger.Info("connector stopped")
	return nil
}

func (c *Connector) beat(report func()) {
	if c.reporter != nil {
		report()
	}
}

func (c *Connector) runSession(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.gatewayURL, nil)
	if err != nil {
		return fmt.Errorf("dial discord gateway: %w", err)
	}
	defer conn.Close()

	// Unblock ReadMessage when the runtime shuts down.
	sessionCtx, cancelSession := context.WithCancel(ctx)
	defer cancelSession()
	go func() {
		<-sessionCtx.Done()
		_ = conn.Close()
	}()

	var (
		writeMu      sync.Mutex
		sequence     atomic.Int64
		heartbeatSec = 30 * time.Second
	)

	readHelloDone := false
	for !readHelloDone {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read hello: %w", err)
		}
		var envelope gatewayEnvelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			return fmt.Errorf("decode hello payload: %w", err)
		}
		if envelope.Op != opHello {
			continue
		}
		var hello discordHello
		if err := json.Unmarshal(envelope.D, &hello); err != nil {
			return fmt.Errorf("decode hello body: %w", err)
		}
		heartbeatSec = time.Duration(hello.HeartbeatIntervalMS) * time.Millisecond
		readHelloDone = true
	}

	if err := c.sendIdentify(conn, &writeMu); err != nil {
		return err
	}
	c.beat(func() { c.reporter.Beat(componentName, "gateway session established") })

	go c.heartbeatLoop(sessionCtx, conn, &writeMu, &sequence, heartbeatSec)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read gateway message: %w", err)
		}

		var envelope gatewayEnvelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			c.logger.Error("decode gateway envelope failed", "error", err)
			continue
		}
		if envelope.S != nil {
			sequence.Store(*envelope.S)
		}

		switch envelope.Op {
		case opDispatch:
			c.beat(func() { c.reporter.Beat(componentName, "gateway event received") })
			c.handleDispatch(ctx, envelope)
		case opHeartbeat:
			if err := c.sendHeartbeat(conn, &writeMu, sequence.Load()); err != nil {
				return err
			}
		case opReconnect:
			return fmt.Errorf("gateway requested reconnect")
		case opInvalidSession:
			return fmt.Errorf("gateway invalid session")
		}
	}
}

func (c *Connector) handleDispatch(ctx context.Context, envelope gatewayEnvelope) {
	switch envelope.T {
	case "READY":
		var ready discordReady
		if err := json.Unmarshal(envelope.D, &ready); err == nil {
			c.setBotUserID(ready.User.ID)
			c.logger.Info("discord session ready", "bot_user_id", ready.User.ID)
		}
	case "MESSAGE_CREATE":
		var message discordMessageCreate
		if err := json.Unmarshal(envelope.D, &message); err != nil {
			c.logger.Error("decode message create failed", "error", err)
			return
		}
		c.dispatchMessage(ctx, message)
	}
}

func (c *Connector) dispatchMessage(ctx context.Context, message discordMessageCreate) {
	if c.queue == nil {
		if err := c.handleMessageCreate(ctx, message); err != nil {
			c.logger.Error("handle discord message failed", "error", err, "channel_id", message.ChannelID, "message_id", message.ID)
		}
		return
	}
	_, err := c.queue.Enqueue(orchestrator.Job{
		Connector: c.Name(),
		ChannelID: message.ChannelID,
		MessageID: message.ID,
		Run: func(jobCtx context.Context) error {
			return c.handleMessageCreate(jobCtx, message)
		},
	})
	if err != nil {
		c.logger.Warn("discord message dropped", "error", err, "channel_id", message.ChannelID, "message_id", message.ID)
	}
}

func (c *Connector) heartbeatLoop(ctx context.Context, conn *websocket.Conn, writeMu *sync.Mutex, seq *atomic.Int64, interval time.Duration) {
	if interval < time.Second {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.sendHeartbeat(conn, writeMu, seq.Load()); err != nil {
				c.logger.Error("heartbeat failed", "error", err)
				return
			}
		}
	}
}

func (c *Connector) sendIdentify(conn *websocket.Conn, writeMu *sync.Mutex) error {
	payload := map[string]any{
		"op": opIdentify,
		"d": map[string]any{
			"token": c.token,
			"intents": discordIntentGuilds |
				discordIntentGuildMessages |
				discordIntentDirectMessages |
				discordIntentMessageContents,
			"properties": map[string]string{
				"os":      "linux",
				"browser": "autobot",
				"device":  "autobot",
			},
		},
	}
	writeMu.Lock()
	defer writeMu.Unlock()
	if err := conn.WriteJSON(payload); err != nil {
		return fmt.Errorf("send identify: %w", err)
	}
	return nil
}

func (c *Connector) sendHeartbeat(conn *websocket.Conn, writeMu *sync.Mutex, seq int64) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	payload := map[string]any{
		"op": opHeartbeat,
		"d":  seq,
	}
	if err := conn.WriteJSON(payload); err != nil {
		return fmt.Errorf("send heartbeat: %w", err)
	}
	return nil
}
