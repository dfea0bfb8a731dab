// Package session implements the cluster-wide session directory: the key
// discipline, value encoding, and the Register/Unregister/Lookup/
// AddTailgator operations built on top of the Directory Client.
package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/primus/primacron/directory"
	"github.com/primus/primacron/logger"
)

// Directory maps (account, session) to the owning node's address and to the
// set of tailgator addresses following that session. Two nodes sharing a
// directory MUST agree on namespace; a mismatch silently partitions them.
//
// Tailgator sets are grow-only: members are never removed by this package.
// Operators wanting automatic expiry should purge stale members out of
// band, or model followers as individually TTL'd keys at the storage layer
// instead of set membership.
type Directory struct {
	client    directory.Client
	namespace string
	ttl       time.Duration
	log       *zap.SugaredLogger
}

// New builds a Directory over client, keying every entry under namespace
// and expiring session entries after ttl.
func New(client directory.Client, namespace string, ttl time.Duration, log *zap.SugaredLogger) *Directory {
	if log == nil {
		log = logger.Logger
	}
	return &Directory{client: client, namespace: namespace, ttl: ttl, log: log}
}

func (d *Directory) sessionKey(account, session string) string {
	return d.namespace + "::" + account + "::" + session
}

func (d *Directory) tailgatorKey(account, session string) string {
	return d.sessionKey(account, session) + "::pipe"
}

// Register computes the session key and value, writes the entry with this
// directory's TTL, and returns the current tailgator list in the same
// round trip.
func (d *Directory) Register(ctx context.Context, account, session, connID, nodeURL string) ([]string, error) {
	addr := Address{NodeURL: nodeURL, ConnID: connID}
	key := d.sessionKey(account, session)
	tailKey := d.tailgatorKey(account, session)

	members, err := d.client.PutAndMembers(ctx, key, d.ttl, addr.String(), tailKey)
	if err != nil {
		return nil, err
	}
	return members, nil
}

// Unregister deletes the session key. connID is accepted for diagnostic
// context only; the delete is keyed by (account, session) alone, matching
// the invariant that Register/Unregister pairs strictly with connection
// open/close on a single node.
func (d *Directory) Unregister(ctx context.Context, account, session, connID string) error {
	d.log.Debugw("session directory unregister", "account", account, "session", session, "connection_id", connID)
	return d.client.Delete(ctx, d.sessionKey(account, session))
}

// Lookup returns the parsed address for (account, session), or ok=false if
// absent. A Lookup immediately after a peer's Unregister may still observe
// the old entry if a Register raced in between; callers must tolerate a
// stale address and treat a peer's 404 as a soft error rather than retry.
func (d *Directory) Lookup(ctx context.Context, account, session string) (Address, bool, error) {
	value, ok, err := d.client.Get(ctx, d.sessionKey(account, session))
	if err != nil || !ok {
		return Address{}, false, err
	}
	addr, err := ParseAddress(value)
	if err != nil {
		return Address{}, false, err
	}
	return addr, true, nil
}

// AddTailgator appends followerAddr to the tailgator set for (account,
// session). Tailgator sets are grow-only: see the package-level note on
// tailgator lifecycle.
func (d *Directory) AddTailgator(ctx context.Context, account, session, followerAddr string) error {
	return d.client.Add(ctx, d.tailgatorKey(account, session), followerAddr)
}

// Tailgators lists the current tailgator set for (account, session) without
// touching the session entry itself.
func (d *Directory) Tailgators(ctx context.Context, account, session string) ([]string, error) {
	return d.client.Members(ctx, d.tailgatorKey(account, session))
}
