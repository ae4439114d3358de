package partition

import (
	"strings"
	"testing"

	"github.com/arkilian/reloader/internal/errors"
	"github.com/arkilian/reloader/pkg/types"
)

const testBaseLocation = "s3://trail-logs/AWSLogs/123456789012/CloudTrail"

func testKey(t *testing.T, values ...string) types.PartitionKey {
	t.Helper()
	key, err := types.NewPartitionKey(types.DefaultPartitionSchema(), values...)
	if err != nil {
		t.Fatalf("unexpected error building key: %v", err)
	}
	return key
}

func TestBuildQueryAdd(t *testing.T) {
	key := testKey(t, "us-east-1", "2020", "03", "30")

	query, err := BuildQuery("cloudtrail_logs", testBaseLocation, key, ActionAdd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := "ALTER TABLE cloudtrail_logs ADD IF NOT EXISTS PARTITION " +
		"(region='us-east-1',year='2020',month='03',day='30') " +
		"LOCATION 's3://trail-logs/AWSLogs/123456789012/CloudTrail/us-east-1/2020/03/30/'"
	if query != expected {
		t.Errorf("expected %q, got %q", expected, query)
	}
}

func TestBuildQueryDrop(t *testing.T) {
	key := testKey(t, "us-east-1", "2020", "03", "30")

	query, err := BuildQuery("cloudtrail_logs", testBaseLocation, key, ActionDrop)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := "ALTER TABLE cloudtrail_logs DROP IF EXISTS PARTITION " +
		"(region='us-east-1',year='2020',month='03',day='30')"
	if query != expected {
		t.Errorf("expected %q, got %q", expected, query)
	}

	if strings.Contains(query, "LOCATION") {
		t.Error("drop statement must not contain a LOCATION clause")
	}
}

func TestBuildQueryTrailingSlashBase(t *testing.T) {
	key := testKey(t, "eu-west-1", "2021", "11", "05")

	query, err := BuildQuery("cloudtrail_logs", testBaseLocation+"/", key, ActionAdd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Contains(query, "CloudTrail//") {
		t.Errorf("base location separator not normalized: %q", query)
	}
}

func TestBuildQueryInvalidAction(t *testing.T) {
	key := testKey(t, "us-east-1", "2020", "03", "30")

	_, err := BuildQuery("cloudtrail_logs", testBaseLocation, key, Action("TRUNCATE"))
	if !errors.IsInvalidAction(err) {
		t.Fatalf("expected invalid action error, got %v", err)
	}
}

func TestBuildQueryRejectsUnsafeValues(t *testing.T) {
	unsafe := []string{
		"us-east'1",
		"2020/03",
		"mo nth",
		"day\\30",
		"x=y",
		"a,b",
	}

	for _, v := range unsafe {
		key := types.PartitionKey{
			Schema: types.DefaultPartitionSchema(),
			Values: []string{v, "2020", "03", "30"},
		}
		_, err := BuildQuery("cloudtrail_logs", testBaseLocation, key, ActionAdd)
		if errors.GetCode(err) != errors.CodeInvalidPartitionKey {
			t.Errorf("value %q: expected invalid partition key error, got %v", v, err)
		}
	}
}

func TestLocation(t *testing.T) {
	key := testKey(t, "ap-southeast-2", "2019", "12", "31")

	loc := Location(testBaseLocation, key)
	expected := "s3://trail-logs/AWSLogs/123456789012/CloudTrail/ap-southeast-2/2019/12/31/"
	if loc != expected {
		t.Errorf("expected %q, got %q", expected, loc)
	}

	if !strings.HasSuffix(loc, "/") {
		t.Error("location must end with a separator")
	}
}

func TestShowPartitionsQuery(t *testing.T) {
	if q := ShowPartitionsQuery("cloudtrail_logs"); q != "SHOW PARTITIONS cloudtrail_logs" {
		t.Errorf("unexpected scan query %q", q)
	}
}
