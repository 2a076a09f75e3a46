package scylla

import (
	"context"
	"fmt"
	"sync"
	"time"

	"idol-platform/internal/config"
	"idol-platform/internal/util"

	"github.com/gocql/gocql"
	"go.uber.org/zap"
)

// PreparedStatements holds the statements the repositories bind per call.
type PreparedStatements struct {
	CreateUser           *gocql.Query
	CreateUsernameLookup *gocql.Query
	CreateEmailLookup    *gocql.Query
	CreateWalletLookup   *gocql.Query
	GetUserByID          *gocql.Query
	GetUserRefByUsername *gocql.Query
	GetUserRefByEmail    *gocql.Query
	GetUserRefByWallet   *gocql.Query
	UpdateUser           *gocql.Query
	UpdateUserStatus     *gocql.Query

	CreateAdmin *gocql.Query
	GetAdmin    *gocql.Query

	CreateIdol           *gocql.Query
	CreateIdolHandleRef  *gocql.Query
	GetIdol              *gocql.Query
	GetIdolRefByXHandle  *gocql.Query
	DeleteIdol           *gocql.Query
	DeleteIdolHandleRef  *gocql.Query
}

// Client owns the gocql session shared by all repositories.
type Client struct {
	Session      *gocql.Session
	config       *config.ScyllaConfig
	Prepared     *PreparedStatements
	prepareMutex sync.Mutex
	isPrepared   bool
}

func NewClient(cfg *config.Config, logger *zap.Logger) (*Client, error) {
	scyllaConfig := cfg.Scylla

	cluster := gocql.NewCluster(scyllaConfig.Nodes...)
	cluster.Keyspace = scyllaConfig.Keyspace
	cluster.Consistency = gocql.LocalQuorum
	cluster.Timeout = 10 * time.Second
	cluster.ConnectTimeout = 10 * time.Second
	cluster.NumConns = 4
	cluster.SocketKeepalive = 30 * time.Second
	cluster.PageSize = 1000
	cluster.RetryPolicy = &gocql.ExponentialBackoffRetryPolicy{
		Min:        time.Second,
		Max:        10 * time.Second,
		NumRetries: 3,
	}

	if scyllaConfig.Username != "" && scyllaConfig.Password != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: scyllaConfig.Username,
			Password: scyllaConfig.Password,
		}
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create scylla session: %w", err)
	}

	client := &Client{
		Session: session,
		config:  &scyllaConfig,
	}

	if err := client.prepareStatements(); err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	util.Info("ScyllaDB client initialized with prepared statements",
		zap.Strings("nodes", scyllaConfig.Nodes),
		zap.String("keyspace", scyllaConfig.Keyspace))

	return client, nil
}

func (c *Client) prepareStatements() error {
	c.prepareMutex.Lock()
	defer c.prepareMutex.Unlock()

	if c.isPrepared {
		return nil
	}

	prepared := &PreparedStatements{}

	prepared.CreateUser = c.Session.Query(`
        INSERT INTO users (
            user_bucket, user_id, username, email, password_hash,
            wallet_address, status, verified, credits,
            two_factor_enabled, two_factor_secret, joined_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	prepared.CreateUsernameLookup = c.Session.Query(`
        INSERT INTO username_to_user (username, user_bucket, user_id, created_at)
        VALUES (?, ?, ?, ?)`)

	prepared.CreateEmailLookup = c.Session.Query(`
        INSERT INTO email_to_user (email, user_bucket, user_id, created_at)
        VALUES (?, ?, ?, ?)`)

	prepared.CreateWalletLookup = c.Session.Query(`
        INSERT INTO wallet_to_user (wallet_address, user_bucket, user_id, created_at)
        VALUES (?, ?, ?, ?)`)

	prepared.GetUserByID = c.Session.Query(`
        SELECT user_bucket, user_id, username, email, password_hash,
            wallet_address, status, verified, credits,
            two_factor_enabled, two_factor_secret, joined_at, updated_at
        FROM users WHERE user_bucket = ? AND user_id = ?`)

	prepared.GetUserRefByUsername = c.Session.Query(`
        SELECT user_bucket, user_id FROM username_to_user WHERE username = ?`)

	prepared.GetUserRefByEmail = c.Session.Query(`
        SELECT user_bucket, user_id FROM email_to_user WHERE email = ?`)

	prepared.GetUserRefByWallet = c.Session.Query(`
        SELECT user_bucket, user_id FROM wallet_to_user WHERE wallet_address = ?`)

	prepared.UpdateUser = c.Session.Query(`
        UPDATE users SET email = ?, wallet_address = ?, status = ?,
            verified = ?, credits = ?, updated_at = ?
        WHERE user_bucket = ? AND user_id = ?`)

	prepared.UpdateUserStatus = c.Session.Query(`
        UPDATE users SET status = ?, updated_at = ?
        WHERE user_bucket = ? AND user_id = ?`)

	prepared.CreateAdmin = c.Session.Query(`
        INSERT INTO admins (admin_id, email, name, password_hash, role, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`)

	prepared.GetAdmin = c.Session.Query(`
        SELECT admin_id, email, name, password_hash, role, created_at, updated_at
        FROM admins WHERE admin_id = ?`)

	prepared.CreateIdol = c.Session.Query(`
        INSERT INTO idols (
            idol_id, x_handle, name, character_description, setting,
            idol_type, idol_image, launch_timing, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	prepared.CreateIdolHandleRef = c.Session.Query(`
        INSERT INTO idols_by_handle (x_handle, idol_id, created_at)
        VALUES (?, ?, ?)`)

	prepared.GetIdol = c.Session.Query(`
        SELECT idol_id, x_handle, name, character_description, setting,
            idol_type, idol_image, launch_timing, created_at, updated_at
        FROM idols WHERE idol_id = ?`)

	prepared.GetIdolRefByXHandle = c.Session.Query(`
        SELECT idol_id FROM idols_by_handle WHERE x_handle = ?`)

	prepared.DeleteIdol = c.Session.Query(`
        DELETE FROM idols WHERE idol_id = ?`)

	prepared.DeleteIdolHandleRef = c.Session.Query(`
        DELETE FROM idols_by_handle WHERE x_handle = ?`)

	c.Prepared = prepared
	c.isPrepared = true

	util.Info("ScyllaDB prepared statements created")
	return nil
}

func (c *Client) Close() {
	if c.Session != nil {
		c.Session.Close()
		util.Info("ScyllaDB client closed")
	}
}

func (c *Client) HealthCheck(ctx context.Context) error {
	var clusterName string
	err := c.Session.Query(`SELECT cluster_name FROM system.local`).WithContext(ctx).Scan(&clusterName)
	if err != nil {
		return fmt.Errorf("scylla health check failed: %w", err)
	}
	return nil
}

// ExecuteBatch runs a logged batch against the session.
func (c *Client) ExecuteBatch(batch *gocql.Batch) error {
	return c.Session.ExecuteBatch(batch)
}
