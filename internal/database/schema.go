package database

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
    id BIGINT PRIMARY KEY,
    username VARCHAR(255),
    full_name VARCHAR(255) NOT NULL DEFAULT '',
    last_active_at TIMESTAMP NULL DEFAULT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE TABLE IF NOT EXISTS orders (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    user_id BIGINT NOT NULL,
    kind VARCHAR(16) NOT NULL,
    recipient VARCHAR(64),
    details JSON NOT NULL,
    amount DECIMAL(14, 2) NOT NULL,
    payment_method VARCHAR(16) NOT NULL DEFAULT 'card',
    status VARCHAR(32) NOT NULL DEFAULT 'pending',
    invoice_id VARCHAR(64),
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    INDEX idx_orders_status_created (status, created_at),
    INDEX idx_orders_user (user_id),
    FOREIGN KEY (user_id) REFERENCES users(id)
)`,
}
