package terraform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChangeSet(t *testing.T) {
	raw := `
Terraform will perform the following actions:

  # aws_eks_cluster.demo will be created

Plan: 12 to add, 1 to change, 3 to destroy.
`
	cs := ParseChangeSet(raw)
	assert.Equal(t, 12, cs.Add)
	assert.Equal(t, 1, cs.Change)
	assert.Equal(t, 3, cs.Destroy)
	assert.False(t, cs.Empty())
	assert.Equal(t, "12 to add, 1 to change, 3 to destroy", cs.Summary())
}

func TestParseChangeSetNoChanges(t *testing.T) {
	cs := ParseChangeSet("No changes. Infrastructure is up-to-date.")
	assert.True(t, cs.Empty())
	assert.Equal(t, "no changes", cs.Summary())
}

func TestParseOutputs(t *testing.T) {
	raw := []byte(`{
  "cluster_name": {"value": "demo-eks-cluster", "type": "string"},
  "region": {"value": "us-west-2", "type": "string"},
  "kubeconfig_cert": {"value": "secret", "type": "string", "sensitive": true}
}`)
	outputs, err := ParseOutputs(raw)
	require.NoError(t, err)
	assert.Equal(t, "demo-eks-cluster", outputs["cluster_name"].StringValue())
	assert.Equal(t, "us-west-2", outputs["region"].StringValue())
	assert.True(t, outputs["kubeconfig_cert"].Sensitive)
}

func TestParseOutputsEmpty(t *testing.T) {
	outputs, err := ParseOutputs(nil)
	require.NoError(t, err)
	assert.Empty(t, outputs)
}
