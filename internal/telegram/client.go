// Package telegram adapts a gotd MTProto session to the upload pipeline and
// the login handshake.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	tdauth "github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/telegram/uploader"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"github.com/rs/zerolog/log"

	"tgcourse/internal/auth"
	"tgcourse/internal/model"
)

// ErrUnauthorized is returned by Dial when the stored session is not signed in.
var ErrUnauthorized = errors.New("session is not authorized")

// Config identifies the application and where its session lives.
type Config struct {
	Credentials model.Credentials
	SessionPath string
}

// Client is a connected session. It is used from one goroutine at a time.
type Client struct {
	td     *telegram.Client
	cancel context.CancelFunc
	done   chan error
	sender *message.Sender
	up     *uploader.Uploader

	mu    sync.Mutex
	peers map[string]tg.InputPeerClass
}

// New prepares a client; nothing touches the network until Connect.
func New(cfg Config) *Client {
	td := telegram.NewClient(cfg.Credentials.APIID, cfg.Credentials.APIHash, telegram.Options{
		SessionStorage: &session.FileStorage{Path: cfg.SessionPath},
	})
	return &Client{td: td, peers: make(map[string]tg.InputPeerClass)}
}

// Dial connects and verifies that the stored session is signed in.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	c := New(cfg)
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	st, err := c.td.Auth().Status(ctx)
	if err != nil {
		_ = c.Close()
		return nil, mapErr(err)
	}
	if !st.Authorized {
		_ = c.Close()
		return nil, ErrUnauthorized
	}
	return c, nil
}

// Connect starts the session in the background and waits until it is usable.
// The session lives until Close or until ctx is cancelled.
func (c *Client) Connect(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- c.td.Run(runCtx, func(ctx context.Context) error {
			close(ready)
			<-ctx.Done()
			return ctx.Err()
		})
	}()

	select {
	case <-ready:
	case err := <-done:
		cancel()
		if err == nil {
			err = errors.New("telegram session stopped before it was ready")
		}
		return mapErr(err)
	case <-ctx.Done():
		cancel()
		<-done
		return ctx.Err()
	}

	c.cancel, c.done = cancel, done
	api := c.td.API()
	c.up = uploader.NewUploader(api)
	c.sender = message.NewSender(api).WithUploader(c.up)
	log.Debug().Msg("telegram session connected")
	return nil
}

// Close stops the background session and waits for it to exit.
func (c *Client) Close() error {
	if c.cancel == nil {
		return nil
	}
	c.cancel()
	err := <-c.done
	c.cancel, c.done = nil, nil
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// SendCode implements auth.Client.
func (c *Client) SendCode(ctx context.Context, phone string) (string, error) {
	sent, err := c.td.Auth().SendCode(ctx, phone, tdauth.SendCodeOptions{})
	if err != nil {
		return "", mapErr(err)
	}
	code, ok := sent.(*tg.AuthSentCode)
	if !ok {
		return "", fmt.Errorf("unexpected send code response %T", sent)
	}
	return code.PhoneCodeHash, nil
}

// SignIn implements auth.Client.
func (c *Client) SignIn(ctx context.Context, phone, hash, code string) error {
	if _, err := c.td.Auth().SignIn(ctx, phone, code, hash); err != nil {
		if errors.Is(err, tdauth.ErrPasswordAuthNeeded) {
			return fmt.Errorf("%w: %w", auth.ErrPasswordRequired, err)
		}
		return mapErr(err)
	}
	return nil
}

// DisplayName implements auth.Client.
func (c *Client) DisplayName(ctx context.Context) (string, error) {
	u, err := c.td.Self(ctx)
	if err != nil {
		return "", mapErr(err)
	}
	if u.FirstName != "" {
		return u.FirstName, nil
	}
	return u.Username, nil
}

// SendText implements pipeline.Sender.
func (c *Client) SendText(ctx context.Context, target, text string) error {
	b, err := c.to(ctx, target)
	if err != nil {
		return err
	}
	if _, err := b.StyledText(ctx, Styled(text)...); err != nil {
		return mapErr(err)
	}
	return nil
}

// SendVideo implements pipeline.Sender.
func (c *Client) SendVideo(ctx context.Context, target string, v model.VideoUpload) error {
	b, err := c.to(ctx, target)
	if err != nil {
		return err
	}
	file, err := c.up.FromPath(ctx, v.Path)
	if err != nil {
		return fmt.Errorf("upload %s: %w", filepath.Base(v.Path), mapErr(err))
	}

	doc := message.UploadedDocument(file, Styled(v.Caption)...).
		MIME(mimeFor(v.Path)).
		Filename(filepath.Base(v.Path))
	if v.ThumbPath != "" {
		thumb, err := c.up.FromPath(ctx, v.ThumbPath)
		if err != nil {
			log.Warn().Err(err).Str("file", v.ThumbPath).Msg("preview upload failed, sending without it")
		} else {
			doc = doc.Thumb(thumb)
		}
	}

	video := doc.Video().Resolution(v.Width, v.Height)
	if v.SupportsStreaming {
		video = video.SupportsStreaming()
	}
	if _, err := b.Media(ctx, video); err != nil {
		return mapErr(err)
	}
	return nil
}

// to resolves target once per client; "me" and "self" address Saved Messages.
func (c *Client) to(ctx context.Context, target string) (*message.RequestBuilder, error) {
	if c.sender == nil {
		return nil, errors.New("telegram client is not connected")
	}
	c.mu.Lock()
	p, ok := c.peers[target]
	c.mu.Unlock()
	if ok {
		return c.sender.To(p), nil
	}

	var b *message.RequestBuilder
	switch strings.ToLower(target) {
	case "me", "self":
		b = c.sender.Self()
	default:
		b = c.sender.Resolve(target)
	}
	p, err := b.AsInputPeer(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", target, mapErr(err))
	}

	c.mu.Lock()
	c.peers[target] = p
	c.mu.Unlock()
	return c.sender.To(p), nil
}

func mimeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mkv":
		return "video/x-matroska"
	case ".mov":
		return "video/quicktime"
	default:
		return "video/mp4"
	}
}

// mapErr tags RPC rejections the login flow distinguishes.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case tgerr.Is(err, "API_ID_INVALID", "API_ID_PUBLISHED_FLOOD"):
		return fmt.Errorf("%w: %w", auth.ErrInvalidIdentity, err)
	case tgerr.Is(err, "PHONE_NUMBER_INVALID"):
		return fmt.Errorf("%w: %w", auth.ErrPhoneInvalid, err)
	case tgerr.Is(err, "PHONE_CODE_INVALID", "PHONE_CODE_EMPTY"):
		return fmt.Errorf("%w: %w", auth.ErrCodeInvalid, err)
	case tgerr.Is(err, "SESSION_PASSWORD_NEEDED"):
		return fmt.Errorf("%w: %w", auth.ErrPasswordRequired, err)
	}
	return err
}
