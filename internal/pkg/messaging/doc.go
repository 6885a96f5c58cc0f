// Package messaging publishes portal events to a broker.
//
// The portal only produces: login audit and analytics events go out
// fire-and-forget for downstream consumers. Callers depend on Publisher and
// the driver (kafka, nats, nsq, google-pubsub or memory) comes from config.
package messaging
