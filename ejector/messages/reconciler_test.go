package messages

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/lidofinance/validator-ejector/beacon"
	"github.com/lidofinance/validator-ejector/config/params"
	types "github.com/lidofinance/validator-ejector/consensus-types/primitives"
	"github.com/lidofinance/validator-ejector/crypto/keystore"
	"github.com/lidofinance/validator-ejector/ejector/messages/source"
	"github.com/lidofinance/validator-ejector/testing/assert"
	"github.com/lidofinance/validator-ejector/testing/require"
	"github.com/lidofinance/validator-ejector/testing/util"
	"github.com/pkg/errors"
	logTest "github.com/sirupsen/logrus/hooks/test"
)

type fakeConsensus struct {
	genesis      *beacon.Genesis
	fork         *beacon.Fork
	validators   map[uint64]*beacon.Validator
	failLookups  bool
	genesisCalls int
}

func (f *fakeConsensus) Genesis(_ context.Context) (*beacon.Genesis, error) {
	f.genesisCalls++
	return f.genesis, nil
}

func (f *fakeConsensus) StateFork(_ context.Context) (*beacon.Fork, error) {
	return f.fork, nil
}

func (f *fakeConsensus) Validator(_ context.Context, id string) (*beacon.Validator, error) {
	if f.failLookups {
		return nil, errors.New("connection refused")
	}
	index, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return nil, err
	}
	v, ok := f.validators[index]
	if !ok {
		return nil, errors.Wrapf(beacon.ErrNotFound, "validator %s", id)
	}
	return v, nil
}

type reconcilerFixture struct {
	reconciler *Reconciler
	store      *Store
	consensus  *fakeConsensus
	dir        string
}

func setupReconciler(t *testing.T, password string) *reconcilerFixture {
	params.SetupTestConfigCleanup(t)
	params.UseMainnetConfig()
	dir := t.TempDir()
	store := NewStore()
	consensus := &fakeConsensus{
		genesis: &beacon.Genesis{GenesisValidatorsRoot: testGenesisRoot},
		fork: &beacon.Fork{
			PreviousVersion: []byte{2, 0, 0, 0},
			CurrentVersion:  []byte{3, 0, 0, 0},
			Epoch:           200000,
		},
		validators: make(map[uint64]*beacon.Validator),
	}
	r, err := NewReconciler(&ReconcilerConfig{
		Store:     store,
		Reader:    &source.DirReader{},
		Consensus: consensus,
		Location:  dir,
		Password:  password,
	})
	require.NoError(t, err)
	return &reconcilerFixture{reconciler: r, store: store, consensus: consensus, dir: dir}
}

// writeExitFile generates a signed exit for a fresh validator, registers the
// validator on the fake beacon node, and drops the message file into the
// watched folder. Returns the file name.
func (f *reconcilerFixture) writeExitFile(t *testing.T, index uint64, forkVersion []byte, status beacon.ValidatorStatus) string {
	signed, pub, err := util.GenerateSignedExit(194048, index, forkVersion, testGenesisRoot)
	require.NoError(t, err)
	f.consensus.validators[index] = &beacon.Validator{
		Index:  types.ValidatorIndex(index),
		Pubkey: pub,
		Status: status,
	}
	name := fmt.Sprintf("validator-%d.json", index)
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, name), util.ExitMessageJSON(signed), 0600))
	return name
}

func TestReconcile_LoadsValidMessages(t *testing.T) {
	hook := logTest.NewGlobal()
	f := setupReconciler(t, "")
	capella := []byte{3, 0, 0, 0}
	f.writeExitFile(t, 11, capella, "active_ongoing")
	f.writeExitFile(t, 12, capella, "active_ongoing")

	report, err := f.reconciler.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Added)
	assert.Equal(t, 0, report.Updated)
	assert.Equal(t, 0, report.Removed)
	assert.Equal(t, 0, report.Invalid)
	require.Equal(t, 2, f.store.Count())

	m, ok := f.store.Get(11)
	require.Equal(t, true, ok)
	assert.Equal(t, uint64(194048), m.Message.Epoch)
	assert.Equal(t, [4]byte{3, 0, 0, 0}, m.ForkVersion)
	require.LogsContain(t, hook, "Exit message reconciliation complete")

	// A second pass over unchanged files is a no-op driven purely by
	// checksums.
	report, err = f.reconciler.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Added)
	assert.Equal(t, 0, report.Updated)
	assert.Equal(t, 0, report.Removed)
	assert.Equal(t, 2, f.store.Count())
	assert.Equal(t, 1, f.consensus.genesisCalls, "genesis should be fetched once and cached")
}

func TestReconcile_RecordsUnparseableFile(t *testing.T) {
	f := setupReconciler(t, "")
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "broken.json"), []byte("{oops"), 0600))

	report, err := f.reconciler.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Added)
	assert.Equal(t, 1, report.Invalid)
	assert.Equal(t, 0, f.store.Count())
	reason, ok := f.store.Invalid()["broken.json"]
	require.Equal(t, true, ok)
	assert.Equal(t, true, strings.Contains(reason, "invalid JSON"), "unexpected reason %q", reason)
}

func TestReconcile_RecordsUnknownValidator(t *testing.T) {
	f := setupReconciler(t, "")
	signed, _, err := util.GenerateSignedExit(194048, 999, []byte{3, 0, 0, 0}, testGenesisRoot)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "ghost.json"), util.ExitMessageJSON(signed), 0600))

	report, err := f.reconciler.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Invalid)
	assert.Equal(t, 0, f.store.Count())
	assert.Equal(t, "validator 999 not found on chain", f.store.Invalid()["ghost.json"])
}

func TestReconcile_RecordsBadSignature(t *testing.T) {
	f := setupReconciler(t, "")
	name := f.writeExitFile(t, 11, []byte{3, 0, 0, 0}, "active_ongoing")
	// Re-key the validator so the stored signature no longer matches.
	_, otherPub, err := util.GenerateSignedExit(194048, 11, []byte{3, 0, 0, 0}, testGenesisRoot)
	require.NoError(t, err)
	f.consensus.validators[11].Pubkey = otherPub

	report, err := f.reconciler.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Added)
	assert.Equal(t, 1, report.Invalid)
	assert.Equal(t, 0, f.store.Count())
	reason, ok := f.store.Invalid()[name]
	require.Equal(t, true, ok)
	assert.Equal(t, true, strings.Contains(reason, "invalid signature"), "unexpected reason %q", reason)
}

func TestReconcile_SkipsVerificationForExitingValidator(t *testing.T) {
	f := setupReconciler(t, "")
	f.writeExitFile(t, 11, []byte{3, 0, 0, 0}, beacon.StatusActiveExiting)
	// Garbage signature under a key the chain never saw still loads because
	// the validator is already on its way out.
	_, otherPub, err := util.GenerateSignedExit(194048, 11, []byte{3, 0, 0, 0}, testGenesisRoot)
	require.NoError(t, err)
	f.consensus.validators[11].Pubkey = otherPub

	report, err := f.reconciler.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Added)
	assert.Equal(t, 0, report.Invalid)
	require.Equal(t, 1, f.store.Count())
}

func TestReconcile_AcceptsPreviousForkSignature(t *testing.T) {
	f := setupReconciler(t, "")
	f.writeExitFile(t, 11, []byte{2, 0, 0, 0}, "active_ongoing")

	report, err := f.reconciler.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Added)
	assert.Equal(t, 0, report.Invalid)
}

func TestReconcile_RemovesDisappearedFiles(t *testing.T) {
	f := setupReconciler(t, "")
	capella := []byte{3, 0, 0, 0}
	name := f.writeExitFile(t, 11, capella, "active_ongoing")
	f.writeExitFile(t, 12, capella, "active_ongoing")

	_, err := f.reconciler.Reconcile(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, f.store.Count())

	require.NoError(t, os.Remove(filepath.Join(f.dir, name)))
	report, err := f.reconciler.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Removed)
	require.Equal(t, 1, f.store.Count())
	_, ok := f.store.Get(11)
	assert.Equal(t, false, ok)
}

func TestReconcile_UpdatesChangedFile(t *testing.T) {
	f := setupReconciler(t, "")
	name := f.writeExitFile(t, 11, []byte{3, 0, 0, 0}, "active_ongoing")

	_, err := f.reconciler.Reconcile(context.Background())
	require.NoError(t, err)

	// Same validator, new content: re-signed at a later epoch.
	signed, pub, err := util.GenerateSignedExit(194050, 11, []byte{3, 0, 0, 0}, testGenesisRoot)
	require.NoError(t, err)
	f.consensus.validators[11].Pubkey = pub
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, name), util.ExitMessageJSON(signed), 0600))

	report, err := f.reconciler.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Added)
	assert.Equal(t, 1, report.Updated)
	require.Equal(t, 1, f.store.Count())
	m, ok := f.store.Get(11)
	require.Equal(t, true, ok)
	assert.Equal(t, uint64(194050), m.Message.Epoch)
}

func TestReconcile_PrunesOnForkRotation(t *testing.T) {
	f := setupReconciler(t, "")
	f.writeExitFile(t, 11, []byte{3, 0, 0, 0}, "active_ongoing")

	_, err := f.reconciler.Reconcile(context.Background())
	require.NoError(t, err)
	m, ok := f.store.Get(11)
	require.Equal(t, true, ok)
	require.Equal(t, [4]byte{3, 0, 0, 0}, m.ForkVersion)

	// The chain rotates to deneb. The entry is pruned and the same file is
	// revalidated under the frozen capella domain.
	f.consensus.fork = &beacon.Fork{
		PreviousVersion: []byte{3, 0, 0, 0},
		CurrentVersion:  []byte{4, 0, 0, 0},
		Epoch:           params.BeaconConfig().DenebForkEpoch,
	}
	report, err := f.reconciler.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Removed)
	assert.Equal(t, 1, report.Added)
	require.Equal(t, 1, f.store.Count())
	m, ok = f.store.Get(11)
	require.Equal(t, true, ok)
	assert.Equal(t, [4]byte{4, 0, 0, 0}, m.ForkVersion)
}

func TestReconcile_AbortsOnTransientLookupFailure(t *testing.T) {
	f := setupReconciler(t, "")
	capella := []byte{3, 0, 0, 0}
	f.writeExitFile(t, 11, capella, "active_ongoing")

	_, err := f.reconciler.Reconcile(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, f.store.Count())

	f.writeExitFile(t, 12, capella, "active_ongoing")
	f.consensus.failLookups = true
	_, err = f.reconciler.Reconcile(context.Background())
	require.ErrorContains(t, "could not look up validator 12", err)

	// The aborted pass leaves previously loaded messages alone.
	require.Equal(t, 1, f.store.Count())
	_, ok := f.store.Get(11)
	assert.Equal(t, true, ok)
}

func TestReconcile_EncryptedFile(t *testing.T) {
	f := setupReconciler(t, "test-password")
	signed, pub, err := util.GenerateSignedExit(194048, 11, []byte{3, 0, 0, 0}, testGenesisRoot)
	require.NoError(t, err)
	f.consensus.validators[11] = &beacon.Validator{Index: 11, Pubkey: pub, Status: "active_ongoing"}
	encrypted, err := keystore.Encrypt(util.ExitMessageJSON(signed), "test-password")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "validator-11.enc.json"), encrypted, 0600))

	report, err := f.reconciler.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Added)
	require.Equal(t, 1, f.store.Count())
}

func TestNewReconciler_Validation(t *testing.T) {
	store := NewStore()
	reader := &source.DirReader{}
	consensus := &fakeConsensus{}

	_, err := NewReconciler(&ReconcilerConfig{Reader: reader, Consensus: consensus, Location: "/tmp/messages"})
	require.ErrorContains(t, "message store is required", err)
	_, err = NewReconciler(&ReconcilerConfig{Store: store, Consensus: consensus, Location: "/tmp/messages"})
	require.ErrorContains(t, "message reader is required", err)
	_, err = NewReconciler(&ReconcilerConfig{Store: store, Reader: reader, Location: "/tmp/messages"})
	require.ErrorContains(t, "consensus client is required", err)
	_, err = NewReconciler(&ReconcilerConfig{Store: store, Reader: reader, Consensus: consensus})
	require.ErrorContains(t, "message location is required", err)
}
