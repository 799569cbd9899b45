package feed

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Atim-01/devblog/internal/config"
	"github.com/Atim-01/devblog/internal/models"
	"github.com/Atim-01/devblog/internal/utils"
	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"
)

// ContentType of the served document
const ContentType = "application/rss+xml; charset=utf-8"

const excerptLength = 200

// Source supplies the newest posts
type Source interface {
	ListPosts(ctx context.Context, limit, offset int) ([]*models.Post, error)
}

// Channel describes the blog in the feed header
type Channel struct {
	Title       string
	Link        string
	Description string
}

// Feed keeps a rendered RSS document of the latest posts
type Feed struct {
	src     Source
	log     *logrus.Logger
	channel Channel
	size    int

	mu    sync.RWMutex
	doc   []byte
	built time.Time
	gen   uint64
}

// New creates a feed for the configured site
func New(src Source, log *logrus.Logger, cfg *config.Config) (*Feed, error) {
	size, err := cfg.FeedLimit()
	if err != nil {
		return nil, err
	}
	return &Feed{
		src: src,
		log: log,
		channel: Channel{
			Title:       cfg.SiteTitle,
			Link:        strings.TrimRight(cfg.SiteURL, "/"),
			Description: "Latest posts from " + cfg.SiteTitle,
		},
		size: size,
	}, nil
}

// Refresh rebuilds the cached document from the source
func (f *Feed) Refresh(ctx context.Context) error {
	_, err := f.rebuild(ctx)
	return err
}

// Bytes returns the cached document, building it first if needed
func (f *Feed) Bytes(ctx context.Context) ([]byte, error) {
	f.mu.RLock()
	doc := f.doc
	f.mu.RUnlock()
	if doc != nil {
		return doc, nil
	}
	return f.rebuild(ctx)
}

// rebuild renders a fresh document. It is only cached when no Invalidate
// ran while the posts were being loaded.
func (f *Feed) rebuild(ctx context.Context) ([]byte, error) {
	f.mu.RLock()
	gen := f.gen
	f.mu.RUnlock()

	posts, err := f.src.ListPosts(ctx, f.size, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load posts for feed: %w", err)
	}
	doc, err := Build(f.channel, posts)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	stale := gen != f.gen
	if !stale {
		f.doc = doc
		f.built = time.Now()
	}
	f.mu.Unlock()

	if stale {
		f.log.Debug("Feed changed during rebuild, result not cached")
		return doc, nil
	}
	f.log.WithField("items", len(posts)).Debug("Feed refreshed")
	return doc, nil
}

// Invalidate drops the cached document so the next read rebuilds it
func (f *Feed) Invalidate() {
	f.mu.Lock()
	f.doc = nil
	f.gen++
	f.mu.Unlock()
}

// BuiltAt reports when the cached document was rendered
func (f *Feed) BuiltAt() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.built
}

// UserRegistered is a no-op; new accounts do not change the feed
func (f *Feed) UserRegistered(*models.User) {}

// PostPublished invalidates the cache so the new post shows up
func (f *Feed) PostPublished(*models.Post) { f.Invalidate() }

// Build renders an RSS 2.0 document
func Build(ch Channel, posts []*models.Post) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	rss := doc.CreateElement("rss")
	rss.CreateAttr("version", "2.0")

	channel := rss.CreateElement("channel")
	channel.CreateElement("title").SetText(ch.Title)
	channel.CreateElement("link").SetText(ch.Link)
	channel.CreateElement("description").SetText(ch.Description)
	if len(posts) > 0 {
		channel.CreateElement("lastBuildDate").SetText(posts[0].UpdatedAt.UTC().Format(time.RFC1123Z))
	}

	for _, post := range posts {
		link := ch.Link + "/posts/" + post.ID
		item := channel.CreateElement("item")
		item.CreateElement("title").SetText(post.Title)
		item.CreateElement("link").SetText(link)
		guid := item.CreateElement("guid")
		guid.CreateAttr("isPermaLink", "true")
		guid.SetText(link)
		if post.Author != nil {
			item.CreateElement("author").SetText(post.Author.Username)
		}
		item.CreateElement("pubDate").SetText(post.CreatedAt.UTC().Format(time.RFC1123Z))
		item.CreateElement("description").SetText(utils.Excerpt(post.Content, excerptLength))
	}

	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render feed: %w", err)
	}
	return out, nil
}
