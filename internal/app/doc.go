// Package app provides the application composition layer for accesshub.
//
// # Architecture Role
//
// The app package sits above the core layers (domain, storage, services) and
// is responsible for composing them into a running application. It is NOT a
// business logic layer - business logic belongs in internal/app/services/.
//
// # Package Structure
//
//	internal/app/
//	├── application.go      # Main application struct, wiring, and lifecycle
//	├── domain/             # Domain models (pure data structures)
//	│   ├── catalog/        # Application catalog records and statuses
//	│   ├── request/        # Access requests and the lifecycle states
//	│   ├── session/        # User session and owned apps
//	│   └── notification/   # User-facing notification entries
//	├── storage/            # Storage interfaces and implementations
//	│   ├── interfaces.go   # Store interfaces (CatalogStore, RequestStore, ...)
//	│   └── memory/         # In-memory implementation (the only one; state
//	│                         lives for the life of the process)
//	├── services/           # Business logic services
//	│   ├── catalog/        # Status resolution and catalog queries
//	│   ├── requests/       # Request lifecycle and autonomous progression
//	│   ├── sessions/       # Login, logout, department seeding, launch
//	│   └── notify/         # Bounded notification feed
//	├── httpapi/            # HTTP API handlers and audit middleware
//	├── system/             # Service lifecycle management
//	└── metrics/            # Application metrics
//
// # Responsibilities
//
// The app package is responsible for:
//
//   - Composing services from internal/app/services/ with their dependencies
//   - Defining storage interfaces that services depend on
//   - Providing domain models shared across services
//   - Registering the autonomous progression runner with the system manager
//
// # Dependency Direction
//
//	cmd/accesshub/
//	      │
//	      ▼
//	internal/app/ (composition)
//	      │
//	      ├──► internal/app/services/ (business logic)
//	      │
//	      ├──► internal/app/storage/ (persistence)
//	      │
//	      └──► internal/app/system/ (lifecycle)
package app
