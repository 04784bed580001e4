package main

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, cmd *cobra.Command, args ...string) string {
	t.Helper()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestImpactCmd(t *testing.T) {
	out := execute(t, impactCmd(),
		"--total-units", "5000000",
		"--total-flow-rate", "1000000000000000000000",
		"--units", "1000000",
		"--flow-rate", "200000000000000000000",
		"--previous", "0",
		"--new", "380517503805",
		"--decimals", "0",
	)

	assert.Contains(t, out, "prior units: 999995\n")
	assert.Contains(t, out, "new grantee units: 1003894\n")
	assert.Contains(t, out, "net impact: 622555154046028952\n")
}

func TestPriceCmd(t *testing.T) {
	out := execute(t, priceCmd(),
		"--start", "100", "--end", "200",
		"--starting-bid", "1000", "--ending-bid", "10",
		"--at", "150", "--decimals", "0",
	)
	assert.Equal(t, "price: 10\n", out)
}

func TestPriceCmd_Invalid(t *testing.T) {
	cmd := priceCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--start", "200", "--end", "100", "--starting-bid", "1", "--ending-bid", "1"})
	assert.Error(t, cmd.Execute())
}

func TestReclaimCmd(t *testing.T) {
	out := execute(t, reclaimCmd(),
		"--for-sale-price", "1000", "--auction-start", "100", "--length", "100",
		"--at", "150", "--decimals", "0",
	)
	assert.Equal(t, "price: 500\n", out)
}

func TestBalanceCmd(t *testing.T) {
	out := execute(t, balanceCmd(),
		"--balance", "100", "--flow-rate", "-1", "--updated-at", "1000",
		"--at", "1050", "--decimals", "0",
	)
	assert.Contains(t, out, "balance: 50\n")
	assert.Contains(t, out, "depleted at: 1970-01-01T00:18:20Z\n")
}

func TestSqrtCmd(t *testing.T) {
	assert.Equal(t, "316227\n", execute(t, sqrtCmd(), "100000000000"))
	assert.Equal(t, "340282366920938463463374607431768211455\n",
		execute(t, sqrtCmd(), "115792089237316195423570985008687907853269984665640564039457584007913129639935"))
}

func TestRootCmd(t *testing.T) {
	root := rootCmd()

	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "balance", "price", "reclaim", "impact", "sqrt"}, names)

	assert.Equal(t, "4\n", execute(t, root, "sqrt", "16"))

	root = rootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"sqrt", "-4"})
	assert.Error(t, root.Execute())
}
