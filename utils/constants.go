package utils

import (
	"time"
)

// Token time constants
const (
	// AccessTokenTTL is the default time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// RefreshTokenTTL is the default time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// Store roles
const (
	RoleOwner = "owner"
	RoleStaff = "staff"
)

// Cache constants
const (
	// CacheTTL is the default lifetime of a cached entry
	CacheTTL = 600 * time.Second

	// StoreProductsTTL is the lifetime of a cached first page of store products
	StoreProductsTTL = 1800 * time.Second

	StoreProductsKeyPrefix = "store_products"
)

// Storage constants
const (
	// TemporaryImageMaxAge is how long an unreferenced upload survives
	TemporaryImageMaxAge = 24 * time.Hour

	DefaultImageFolder = "images"
)

// WalkInCustomerName is shown on transactions without a registered customer.
const WalkInCustomerName = "Khách lẻ"

// UnknownCustomerName is used in transaction summaries when the snapshot has no name.
const UnknownCustomerName = "Unknown"

type contextKey string

// Request-scoped context keys
const (
	RequestIDKey contextKey = "request_id"
	UserAgentKey contextKey = "user_agent"
	IPAddressKey contextKey = "ip_address"
	EndpointKey  contextKey = "endpoint"
)

// fiber Locals keys set by the auth and store access middleware
const (
	LocalUserID     = "user_id"
	LocalStoreID    = "store_id"
	LocalMembership = "membership"
)

// LocalAccessToken is the raw bearer token of an authenticated request
const LocalAccessToken = "access_token"
