package database

// schema is applied in order by Migrate. The unique key on tenants.slug is
// what makes store creation an atomic conditional insert.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id             VARCHAR(36)  NOT NULL PRIMARY KEY,
		email          VARCHAR(255) NOT NULL,
		password_hash  VARCHAR(255) NOT NULL,
		name           VARCHAR(255) NOT NULL DEFAULT '',
		role           VARCHAR(16)  NOT NULL DEFAULT 'user',
		email_verified BOOLEAN      NOT NULL DEFAULT FALSE,
		phone          VARCHAR(32)  NOT NULL DEFAULT '',
		address        VARCHAR(512) NOT NULL DEFAULT '',
		city           VARCHAR(128) NOT NULL DEFAULT '',
		state          VARCHAR(128) NOT NULL DEFAULT '',
		pincode        VARCHAR(16)  NOT NULL DEFAULT '',
		created_at     DATETIME     NOT NULL,
		updated_at     DATETIME     NOT NULL,
		UNIQUE KEY uq_users_email (email)
	)`,
	`CREATE TABLE IF NOT EXISTS tenants (
		id               VARCHAR(36)  NOT NULL PRIMARY KEY,
		slug             VARCHAR(64)  NOT NULL,
		name             VARCHAR(255) NOT NULL,
		description      TEXT,
		owner_id         VARCHAR(36)  NOT NULL,
		owner_email      VARCHAR(255) NOT NULL DEFAULT '',
		status           VARCHAR(16)  NOT NULL DEFAULT 'pending',
		rejection_reason VARCHAR(512) NOT NULL DEFAULT '',
		theme_color      VARCHAR(16)  NOT NULL DEFAULT '',
		created_at       DATETIME     NOT NULL,
		updated_at       DATETIME     NOT NULL,
		UNIQUE KEY uq_tenants_slug (slug),
		KEY idx_tenants_owner (owner_id)
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id          VARCHAR(36)   NOT NULL PRIMARY KEY,
		business_id VARCHAR(36)   NULL,
		name        VARCHAR(255)  NOT NULL,
		description TEXT,
		category    VARCHAR(128)  NOT NULL DEFAULT '',
		price       DECIMAL(12,2) NOT NULL DEFAULT 0,
		stock       INT           NOT NULL DEFAULT 0,
		weight      VARCHAR(64)   NOT NULL DEFAULT '',
		image_url   VARCHAR(1024) NOT NULL DEFAULT '',
		type        VARCHAR(16)   NOT NULL DEFAULT 'physical',
		created_at  DATETIME      NOT NULL,
		updated_at  DATETIME      NOT NULL,
		KEY idx_products_business (business_id)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id               VARCHAR(36)   NOT NULL PRIMARY KEY,
		business_id      VARCHAR(36)   NOT NULL,
		user_id          VARCHAR(36)   NOT NULL,
		user_email       VARCHAR(255)  NOT NULL DEFAULT '',
		items            JSON          NOT NULL,
		subtotal         DECIMAL(12,2) NOT NULL,
		shipping_fee     DECIMAL(12,2) NOT NULL DEFAULT 0,
		total            DECIMAL(12,2) NOT NULL,
		shipping_address JSON          NOT NULL,
		payment_method   VARCHAR(16)   NOT NULL,
		status           VARCHAR(16)   NOT NULL DEFAULT 'pending',
		created_at       DATETIME      NOT NULL,
		updated_at       DATETIME      NOT NULL,
		KEY idx_orders_business (business_id),
		KEY idx_orders_user (user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS page_content (
		business_id VARCHAR(36) NOT NULL DEFAULT '',
		page_id     VARCHAR(16) NOT NULL,
		field_key   VARCHAR(64) NOT NULL,
		field_value TEXT        NOT NULL,
		updated_at  DATETIME    NOT NULL,
		PRIMARY KEY (business_id, page_id, field_key)
	)`,
}
