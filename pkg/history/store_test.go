package history

import (
	"testing"
	"time"

	"github.com/mnemograph/mnemograph/pkg/kv"
	"github.com/mnemograph/mnemograph/pkg/model"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := kv.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return New(store)
}

func TestRecordAndReconstructContent(t *testing.T) {
	s := newTestStore(t)
	entity := model.NewNodeID()
	t0 := time.Now()

	root := &model.VersionEntry{
		VersionID: "v1", EntityID: entity, Branch: "main",
		Diff: model.Diff{Kind: model.DiffInitial, Content: "hello"}, Timestamp: t0,
	}
	require.NoError(t, s.RecordVersion(root))

	v2 := &model.VersionEntry{
		VersionID: "v2", EntityID: entity, ParentID: "v1", Branch: "main",
		Diff: model.Diff{Kind: model.DiffContentChanged, Content: "hello world"}, Timestamp: t0.Add(time.Minute),
	}
	require.NoError(t, s.RecordVersion(v2))

	content, err := s.GetContentAtVersion("v2")
	require.NoError(t, err)
	require.Equal(t, "hello world", content)

	head, err := s.GetBranchHead(entity, "main")
	require.NoError(t, err)
	require.Equal(t, "v2", head)
}

func TestRecordVersionRejectsMissingParent(t *testing.T) {
	s := newTestStore(t)
	entity := model.NewNodeID()
	v := &model.VersionEntry{VersionID: "v1", EntityID: entity, ParentID: "does-not-exist", Timestamp: time.Now()}
	err := s.RecordVersion(v)
	require.Error(t, err)
	var cve *model.ConstraintViolationError
	require.ErrorAs(t, err, &cve)
	require.Equal(t, "I3", cve.Constraint)
}

func TestCreateBranchRejectsDuplicateName(t *testing.T) {
	s := newTestStore(t)
	entity := model.NewNodeID()
	require.NoError(t, s.CreateBranch("main", entity, "", time.Now()))
	err := s.CreateBranch("main", entity, "", time.Now())
	require.Error(t, err)
	var be *model.BranchExistsError
	require.ErrorAs(t, err, &be)
}

func TestGetVersionChainIsChronological(t *testing.T) {
	s := newTestStore(t)
	entity := model.NewNodeID()
	t0 := time.Now()
	require.NoError(t, s.RecordVersion(&model.VersionEntry{VersionID: "v1", EntityID: entity, Branch: "main", Diff: model.Diff{Kind: model.DiffInitial, Content: "a"}, Timestamp: t0}))
	require.NoError(t, s.RecordVersion(&model.VersionEntry{VersionID: "v2", EntityID: entity, ParentID: "v1", Branch: "main", Diff: model.Diff{Kind: model.DiffContentChanged, Content: "ab"}, Timestamp: t0.Add(time.Minute)}))
	require.NoError(t, s.RecordVersion(&model.VersionEntry{VersionID: "v3", EntityID: entity, ParentID: "v2", Branch: "main", Diff: model.Diff{Kind: model.DiffContentChanged, Content: "abc"}, Timestamp: t0.Add(2 * time.Minute)}))

	chain, err := s.GetVersionChain(entity)
	require.NoError(t, err)
	require.Len(t, chain, 3)
	require.Equal(t, []string{"v1", "v2", "v3"}, []string{chain[0].VersionID, chain[1].VersionID, chain[2].VersionID})
}

func TestGetContentAtTimestamp(t *testing.T) {
	s := newTestStore(t)
	entity := model.NewNodeID()
	t0 := time.Now()
	require.NoError(t, s.RecordVersion(&model.VersionEntry{VersionID: "v1", EntityID: entity, Branch: "main", Diff: model.Diff{Kind: model.DiffInitial, Content: "a"}, Timestamp: t0}))
	require.NoError(t, s.RecordVersion(&model.VersionEntry{VersionID: "v2", EntityID: entity, ParentID: "v1", Branch: "main", Diff: model.Diff{Kind: model.DiffContentChanged, Content: "ab"}, Timestamp: t0.Add(time.Hour)}))

	content, err := s.GetContentAtTimestamp(entity, "main", t0.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, "a", content)

	content, err = s.GetContentAtTimestamp(entity, "main", t0.Add(2*time.Hour))
	require.NoError(t, err)
	require.Equal(t, "ab", content)
}

func TestMergeBranchBindsRealEntity(t *testing.T) {
	s := newTestStore(t)
	entity := model.NewNodeID()
	t0 := time.Now()
	require.NoError(t, s.RecordVersion(&model.VersionEntry{VersionID: "main-1", EntityID: entity, Branch: "main", Diff: model.Diff{Kind: model.DiffInitial, Content: "base"}, Timestamp: t0}))
	require.NoError(t, s.CreateBranch("feature", entity, "main-1", t0))
	require.NoError(t, s.RecordVersion(&model.VersionEntry{VersionID: "feature-1", EntityID: entity, ParentID: "main-1", Branch: "feature", Diff: model.Diff{Kind: model.DiffContentChanged, Content: "base+feature"}, Timestamp: t0.Add(time.Minute)}))

	merged, err := s.MergeBranch(entity, "feature", "main", "merge-1", "merge feature into main", "tester", t0.Add(2*time.Minute))
	require.NoError(t, err)
	require.Equal(t, entity, merged.EntityID)
	require.NotEqual(t, model.NodeID{}, merged.EntityID)

	head, err := s.GetBranchHead(entity, "main")
	require.NoError(t, err)
	require.Equal(t, "merge-1", head)

	feature, err := s.GetBranch("feature")
	require.NoError(t, err)
	require.Equal(t, "main", feature.MergedInto)
}
