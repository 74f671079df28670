package report

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/accord-io/accord/internal/model"
)

func TestNew(t *testing.T) {
	r := New(model.PlanContext())
	assert.NotEmpty(t, r.RunID)
	assert.Equal(t, "plan", r.Command)
	assert.True(t, r.EvalOnly)
	assert.False(t, r.CreatedAt.IsZero())

	r2 := New(model.ApplyContext())
	assert.False(t, r2.EvalOnly)
	assert.NotEqual(t, r.RunID, r2.RunID)
}

func TestExceptionsAndByTemplate(t *testing.T) {
	r := New(model.ApplyContext())
	r.Add(&model.TemplateChangeDetails{
		ResourceID:   "engineers",
		TemplatePath: "groups/engineers.yaml",
	})
	r.Add(&model.TemplateChangeDetails{
		ResourceID:     "admins",
		TemplatePath:   "groups/admins.yaml",
		ExceptionsSeen: []string{"boom"},
	})

	assert.Equal(t, []string{"boom"}, r.Exceptions())
	require.NotNil(t, r.ByTemplate("groups/admins.yaml"))
	assert.Equal(t, "admins", r.ByTemplate("groups/admins.yaml").ResourceID)
	assert.Nil(t, r.ByTemplate("nosuch.yaml"))
}

func TestLocalSink_Write(t *testing.T) {
	dir := t.TempDir()
	r := New(model.PlanContext())
	r.Add(&model.TemplateChangeDetails{
		ResourceID:   "engineers",
		ResourceType: "memory:group",
		ProposedChanges: []model.AccountChangeDetails{{
			Account: "dev (1)",
			ProposedChanges: []model.ProposedChange{{
				ChangeType: model.ChangeCreate,
				ResourceID: "engineers",
			}},
		}},
	})

	sink := &LocalSink{Dir: dir}
	path, err := sink.Write(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var loaded Report
	require.NoError(t, yaml.Unmarshal(data, &loaded))
	assert.Equal(t, r.RunID, loaded.RunID)
	require.Len(t, loaded.Templates, 1)
	assert.Equal(t, "engineers", loaded.Templates[0].ResourceID)
	require.Len(t, loaded.Templates[0].ProposedChanges, 1)
	assert.Equal(t, model.ChangeCreate, loaded.Templates[0].ProposedChanges[0].ProposedChanges[0].ChangeType)
}
