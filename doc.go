// Package backend provides the AskHub API server.

// This package contains the main application entry point. The actual API
// documentation is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and database schemas
// - internal/auth: Authentication, JWT issuing, and login lockout
// - internal/voting: Vote toggling and answer acceptance
// - internal/notify: In-app notification fan-out
// - internal/database: Database connection and migrations
// - internal/cache: Response caching and the Redis client
// - internal/middleware: HTTP middleware (auth, rate limiting, metrics)
// - internal/metrics: Prometheus metric definitions
// - internal/seed: Development and test data seeding

// See the individual package documentation for detailed API reference.
package backend
