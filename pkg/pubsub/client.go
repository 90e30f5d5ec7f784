// Package pubsub wraps the Pub/Sub v2 client: cached publishers, subscriber
// handles and startup checks for the topics and subscriptions a binary uses.
package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/clipstream-backend/pkg/config"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
)

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errNotInitialized    = errors.New("pubsub client not initialized")
)

// Publisher publishes raw payloads to a topic and waits for the server id.
type Publisher interface {
	Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error)
}

type Client struct {
	client    *pubsub.Client
	projectID string
	cfg       config.PubSubConfig
	required  requirements

	mu         sync.Mutex
	publishers map[string]*pubsub.Publisher
}

type requirements struct {
	topics        []string
	subscriptions []string
}

// Option declares a resource the binary depends on. Required resources are
// checked at startup and by Ping.
type Option func(*requirements)

func RequireTopics(names ...string) Option {
	return func(r *requirements) { r.topics = appendNames(r.topics, names) }
}

func RequireSubscriptions(names ...string) Option {
	return func(r *requirements) { r.subscriptions = appendNames(r.subscriptions, names) }
}

func appendNames(dst, names []string) []string {
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			dst = append(dst, name)
		}
	}
	return dst
}

func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger, opts ...Option) (*Client, error) {
	if strings.TrimSpace(gcp.ProjectID) == "" {
		return nil, errProjectIDRequired
	}
	psClient, err := pubsub.NewClient(ctx, gcp.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}
	c := &Client{
		client:     psClient,
		projectID:  gcp.ProjectID,
		cfg:        cfg,
		publishers: make(map[string]*pubsub.Publisher),
	}
	for _, opt := range opts {
		opt(&c.required)
	}
	if err := c.Ping(ctx); err != nil {
		_ = psClient.Close()
		return nil, err
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"topics":        c.required.topics,
			"subscriptions": c.required.subscriptions,
		}), "pubsub client initialized")
	}
	return c, nil
}

// Ping checks that every required topic and subscription exists.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errNotInitialized
	}
	for _, name := range c.required.topics {
		_, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: c.resourceName("topics", name)})
		if err := describeLookup("topic", name, err); err != nil {
			return err
		}
	}
	for _, name := range c.required.subscriptions {
		_, err := c.client.SubscriptionAdminClient.GetSubscription(ctx, &pubsubpb.GetSubscriptionRequest{Subscription: c.resourceName("subscriptions", name)})
		if err := describeLookup("subscription", name, err); err != nil {
			return err
		}
	}
	return nil
}

func describeLookup(kind, name string, err error) error {
	switch {
	case err == nil:
		return nil
	case status.Code(err) == codes.NotFound:
		return fmt.Errorf("%s %q does not exist", kind, name)
	}
	return fmt.Errorf("checking %s %q: %w", kind, name, err)
}

// Subscription returns a subscriber for a subscription id or full resource
// name.
func (c *Client) Subscription(name string) *pubsub.Subscriber {
	if c == nil || c.client == nil {
		return nil
	}
	full := c.resourceName("subscriptions", name)
	if full == "" {
		return nil
	}
	return c.client.Subscriber(full)
}

func (c *Client) VideoDeletionSubscription() *pubsub.Subscriber {
	return c.Subscription(c.cfg.VideoDeletionSubscription)
}

func (c *Client) AnalyticsSubscription() *pubsub.Subscriber {
	return c.Subscription(c.cfg.AnalyticsSubscription)
}

// Publisher returns a fresh publisher for a topic id or full resource name.
// Callers own it and must Stop it.
func (c *Client) Publisher(name string) *pubsub.Publisher {
	if c == nil || c.client == nil {
		return nil
	}
	full := c.resourceName("topics", name)
	if full == "" {
		return nil
	}
	return c.client.Publisher(full)
}

// Publish sends data through a cached publisher and blocks until the
// message id is known.
func (c *Client) Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error) {
	if c == nil || c.client == nil {
		return "", errNotInitialized
	}
	pub, err := c.cachedPublisher(topic)
	if err != nil {
		return "", err
	}
	id, err := pub.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs}).Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publishing to %q: %w", topic, err)
	}
	return id, nil
}

func (c *Client) cachedPublisher(topic string) (*pubsub.Publisher, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pub, ok := c.publishers[topic]; ok {
		return pub, nil
	}
	pub := c.Publisher(topic)
	if pub == nil {
		return nil, fmt.Errorf("topic %q not configured", topic)
	}
	c.publishers[topic] = pub
	return pub, nil
}

// Close flushes cached publishers before closing the connection.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	c.mu.Lock()
	for topic, pub := range c.publishers {
		pub.Stop()
		delete(c.publishers, topic)
	}
	c.mu.Unlock()
	return c.client.Close()
}

// resourceName expands an id to projects/<project>/<collection>/<id>. Full
// names of the same collection pass through.
func (c *Client) resourceName(collection, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "projects/") && strings.Contains(name, "/"+collection+"/") {
		return name
	}
	project := strings.TrimSpace(c.projectID)
	if project == "" {
		return ""
	}
	return "projects/" + project + "/" + collection + "/" + name
}
