package csvio_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/okian/edulog/internal/adapters/csvio"
	"github.com/okian/edulog/internal/domain/dedupe"
	"github.com/okian/edulog/internal/domain/model"
	"github.com/okian/edulog/internal/domain/split"
	"github.com/stretchr/testify/require"
)

const submissionsCSV = `id;user;item;time;answer;correct
s1;u1;i1;2023-03-01 10:00:00;print(1);1
s2;u1;i1;2023-03-01 10:05:00;print(2);0
s2;u1;i1;2023-03-01 10:05:00;print(2);0
s3;u2;i2;2023-03-01T11:00:00Z;   ;true
s4;;i2;2023-03-01 11:00:00;x;1
s5;u2;i2;2023-03-01 12:00:00;x=1;False
short;u3
`

func TestReadSubmissions(t *testing.T) {
	r := csvio.NewReader()
	subs, stats, err := r.Submissions(context.Background(), strings.NewReader(submissionsCSV))
	require.NoError(t, err)

	require.Len(t, subs, 3)
	require.Equal(t, "s1", subs[0].ID)
	require.Equal(t, "u1", subs[0].User)
	require.True(t, subs[0].Correct)
	require.Equal(t, time.Date(2023, 3, 1, 10, 0, 0, 0, time.UTC), subs[0].Time)
	require.False(t, subs[1].Correct)
	require.Equal(t, "s5", subs[2].ID)
	require.Equal(t, 2, subs[2].Order)

	require.Equal(t, 7, stats.Read)
	require.Equal(t, 3, stats.Loaded)
	require.Equal(t, 1, stats.Dropped[csvio.ReasonDuplicate])
	require.Equal(t, 1, stats.Dropped[csvio.ReasonBlankAnswer])
	require.Equal(t, 2, stats.Dropped[csvio.ReasonMissingField])
	require.Equal(t, 4, stats.DroppedTotal())
}

func TestReadSubmissions_MalformedTime(t *testing.T) {
	src := "id;user;item;time;answer;correct\ns1;u1;i1;yesterday;x;1\n"
	_, _, err := csvio.NewReader().Submissions(context.Background(), strings.NewReader(src))
	require.Error(t, err)
	require.True(t, errors.Is(err, csvio.ErrMalformedRow))
	require.Contains(t, err.Error(), "line 2")
}

func TestReadSubmissions_BadHeader(t *testing.T) {
	_, _, err := csvio.NewReader().Submissions(context.Background(), strings.NewReader("a;b;c\n"))
	require.ErrorIs(t, err, csvio.ErrBadHeader)

	_, _, err = csvio.NewReader().Submissions(context.Background(), nil)
	require.ErrorIs(t, err, csvio.ErrNilReader)
}

func TestReadSubmissions_Options(t *testing.T) {
	encoded := url.QueryEscape(base64.StdEncoding.EncodeToString([]byte("print('hi')\n")))
	blank := url.QueryEscape(base64.StdEncoding.EncodeToString([]byte("  \n")))
	src := "id,user,item,time,answer,correct\n" +
		"s1,u1,i1,2023-03-01 10:00:00," + encoded + ",1\n" +
		"s2,u1,i1,2023-03-01 10:01:00," + blank + ",1\n" +
		"s3,u1,i1,2023-03-01 10:02:00,%%%,1\n"

	r := csvio.NewReader(
		csvio.WithSeparator(','),
		csvio.WithEncodedAnswers(true),
		csvio.WithDeduper(dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(10))),
	)
	subs, stats, err := r.Submissions(context.Background(), strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.Equal(t, "print('hi')", subs[0].Answer)
	require.Equal(t, 1, stats.Dropped[csvio.ReasonBlankAnswer])
	require.Equal(t, 1, stats.Dropped[csvio.ReasonUndecodable])
}

func TestReadSubmissions_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := csvio.NewReader().Submissions(ctx, strings.NewReader(submissionsCSV))
	require.ErrorIs(t, err, context.Canceled)
}

func TestReadDefectMatrix(t *testing.T) {
	src := "submission id,3,1,2\ns1,0,2,1\ns2,0,0,0\ns3,1,,0.0\n"
	m, dups, err := csvio.NewReader().DefectMatrix(context.Background(), strings.NewReader(src))
	require.NoError(t, err)
	require.Zero(t, dups)
	require.Equal(t, []model.DefectID{1, 2}, m["s1"])
	require.Empty(t, m["s2"])
	require.Contains(t, m, "s2")
	require.Equal(t, []model.DefectID{3}, m["s3"])

	_, _, err = csvio.NewReader().DefectMatrix(context.Background(), strings.NewReader("id,1\n"))
	require.ErrorIs(t, err, csvio.ErrBadHeader)

	_, _, err = csvio.NewReader().DefectMatrix(context.Background(), strings.NewReader("submission id,x\n"))
	require.ErrorIs(t, err, csvio.ErrBadHeader)

	_, _, err = csvio.NewReader().DefectMatrix(context.Background(), strings.NewReader("submission id,1\ns1,many\n"))
	require.ErrorIs(t, err, csvio.ErrMalformedRow)
}

func TestReadDefectMatrix_RepeatedColumn(t *testing.T) {
	_, _, err := csvio.NewReader().DefectMatrix(context.Background(), strings.NewReader("submission id,1,1\ns1,1,1\n"))
	require.ErrorIs(t, err, csvio.ErrBadHeader)
	require.Contains(t, err.Error(), "repeated defect column 1")
}

func TestReadDefectMatrix_RepeatedSubmission(t *testing.T) {
	src := "submission id,1,2\ns1,1,0\ns2,0,1\ns1,0,1\ns1,1,1\n"
	m, dups, err := csvio.NewReader().DefectMatrix(context.Background(), strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, 2, dups)
	require.Len(t, m, 2)
	require.Equal(t, []model.DefectID{1}, m["s1"])
}

func TestRead_ByteOrderMark(t *testing.T) {
	ctx := context.Background()
	r := csvio.NewReader()

	subs, _, err := r.Submissions(ctx, strings.NewReader("\ufeff"+submissionsCSV))
	require.NoError(t, err)
	require.NotEmpty(t, subs)

	m, _, err := r.DefectMatrix(ctx, strings.NewReader("\ufeffsubmission id,1\ns1,1\n"))
	require.NoError(t, err)
	require.Equal(t, []model.DefectID{1}, m["s1"])

	c, err := r.Catalog(ctx, strings.NewReader("\ufeffid,name,severity,category,description\n1,x,1,style,\n"))
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
}

func TestReadCatalog(t *testing.T) {
	src := "id,name,severity,category,description\n" +
		"2,wrong_operator,5,logic,uses = instead of ==\n" +
		"1,unused_variable,1,style,\n"
	c, err := csvio.NewReader().Catalog(context.Background(), strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())
	require.Equal(t, []model.DefectID{1, 2}, c.IDs())

	d, ok := c.Get(2)
	require.True(t, ok)
	require.Equal(t, "wrong_operator", d.Name)
	require.Equal(t, 5, d.Severity)
	require.Equal(t, "logic", d.Category)

	bad := "id,name,severity,category,description\n1,x,9,style,\n"
	_, err = csvio.NewReader().Catalog(context.Background(), strings.NewReader(bad))
	require.ErrorIs(t, err, csvio.ErrMalformedRow)
}

func reportRows() []model.RecencyRow {
	ts := time.Date(2023, 3, 1, 10, 0, 0, 0, time.UTC)
	return []model.RecencyRow{
		{SubmissionID: "s1", User: "u1", Item: "i1", Time: ts, Defect: 7, DefectName: "d7", Severity: 2, Position: 3, First: true},
		{SubmissionID: "s2", User: "u1", Item: "i1", Time: ts, Defect: 7, DefectName: "d7", Severity: 2, Position: 5, Since: 2},
	}
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, csvio.NewWriter().Report(&buf, reportRows()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "submission id,user,item,time,defect id,defect name,severity,position,last encountered", lines[0])
	require.Equal(t, "s1,u1,i1,2023-03-01T10:00:00Z,7,d7,2,3,first", lines[1])
	require.Equal(t, "s2,u1,i1,2023-03-01T10:00:00Z,7,d7,2,5,2", lines[2])
}

func TestWriteReport_Labels(t *testing.T) {
	rows := reportRows()

	w := csvio.NewWriter(csvio.WithSentinel("never"))
	require.Equal(t, "never", w.LastEncountered(&rows[0]))

	legacy := csvio.NewWriter(csvio.WithLegacyFallback(true))
	require.Equal(t, "3", legacy.LastEncountered(&rows[0]))
	require.Equal(t, "2", legacy.LastEncountered(&rows[1]))

	require.ErrorIs(t, csvio.NewWriter().Report(nil, rows), csvio.ErrNilWriter)
}

func TestWriteSplit(t *testing.T) {
	var buf bytes.Buffer
	err := csvio.NewWriter().Split(&buf, []split.Row{{User: "a", Partition: split.Train}, {User: "b", Partition: split.Test}})
	require.NoError(t, err)
	require.Equal(t, "user,partition\na,train\nb,test\n", buf.String())
}

func TestWriteInputs_RoundTrip(t *testing.T) {
	ctx := context.Background()
	catalog := model.NewCatalog([]model.Defect{
		{ID: 1, Name: "missing_return", Severity: 3, Category: "logic"},
		{ID: 4, Name: "unused_variable", Severity: 1, Category: "style", Description: "assigned, never read"},
	})
	at := time.Date(2023, 3, 1, 10, 0, 0, 0, time.UTC)
	subs := []model.Submission{
		{ID: "s1", User: "u1", Item: "i1", Time: at, Answer: "def f(): pass", Defects: []model.DefectID{1, 4}},
		{ID: "s2", User: "u1", Item: "i1", Time: at.Add(time.Minute), Answer: "x = 1", Correct: true, Order: 1},
	}
	w := csvio.NewWriter()

	var logBuf, matrixBuf, catalogBuf bytes.Buffer
	require.NoError(t, w.SubmissionLog(&logBuf, subs, ';'))
	require.NoError(t, w.DefectMatrix(&matrixBuf, subs, catalog))
	require.NoError(t, w.Catalog(&catalogBuf, catalog))
	require.Equal(t, "submission id,1,4\ns1,1,1\ns2,0,0\n", matrixBuf.String())

	r := csvio.NewReader()
	got, stats, err := r.Submissions(ctx, &logBuf)
	require.NoError(t, err)
	require.Equal(t, 2, stats.Loaded)
	require.Equal(t, "def f(): pass", got[0].Answer)
	require.True(t, got[1].Time.Equal(subs[1].Time))
	require.True(t, got[1].Correct)

	matrix, _, err := r.DefectMatrix(ctx, &matrixBuf)
	require.NoError(t, err)
	require.Equal(t, []model.DefectID{1, 4}, matrix["s1"])
	require.Empty(t, matrix["s2"])

	back, err := r.Catalog(ctx, &catalogBuf)
	require.NoError(t, err)
	d, ok := back.Get(4)
	require.True(t, ok)
	require.Equal(t, "assigned, never read", d.Description)
}
