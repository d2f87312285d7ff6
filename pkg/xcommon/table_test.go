package xcommon_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/BlackCloud37/latency-test/pkg/xcommon"
	"github.com/stretchr/testify/assert"
)

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	xcommon.PrintTable(context.Background(), &buf, []string{"conn", "avg(us)"}, [][]string{{"0", "12.5"}, {"1", "13"}})
	assert.Contains(t, buf.String(), "conn")
	assert.Contains(t, buf.String(), "12.5")
}
