package unpacker

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"amfilter/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRecord = "((1005442),['jpeg'|'jpeg'],'1005/442/X.jpg',['Della Ross'],'Della Ross',['X.jpg'|'X.200x200.jpg'],[164087|12094])"

func testMediaConfig(t *testing.T) config.MediaConfig {
	t.Helper()

	cfg, err := config.Default()
	require.NoError(t, err)

	return cfg.Media
}

// existing returns an oracle that knows only the given paths
func existing(paths ...string) Oracle {
	known := make(map[string]bool, len(paths))
	for _, p := range paths {
		known[p] = true
	}

	return OracleFunc(func(path string) bool {
		return known[path]
	})
}

func TestCreateSelectionStrategy(t *testing.T) {
	for _, name := range []string{config.StrategyTopOnly, config.StrategyFirstMatch} {
		s, err := CreateSelectionStrategy(name)
		require.NoError(t, err)
		assert.NotNil(t, s)
	}

	_, err := CreateSelectionStrategy("largest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown selection strategy")
}

func TestUnpacker_Process(t *testing.T) {
	tests := []struct {
		name          string
		input         []string
		oracle        Oracle
		mutate        func(cfg *config.MediaConfig)
		expectedOut   []string
		expectedDiag  []string
		expectError   bool
		expectedStats Stats
	}{
		{
			name:   "end to end sample",
			input:  []string{sampleRecord},
			oracle: existing("/data/amweb/multimedia/1005/442/X.jpg"),
			expectedOut: []string{
				"1005442\t['Della Ross']\tDella Ross\t1005/442/X.jpg\tX.jpg\tjpeg\t164087\tmultimedia/1005/442/X.jpg",
			},
			expectedStats: Stats{Records: 1, Rows: 1},
		},
		{
			name:          "largest too big, smaller never tried",
			input:         []string{"((1),['jpeg'|'jpeg'],'9/A.jpg',['C'],'P',['A.jpg'|'B.jpg'],[600000|120000])"},
			oracle:        existing("/data/amweb/multimedia/9/A.jpg", "/data/amweb/multimedia/9/B.jpg"),
			expectedStats: Stats{Records: 1},
		},
		{
			name:   "largest too big, first match falls back",
			input:  []string{"((1),['jpeg'|'jpeg'],'9/A.jpg',['C'],'P',['A.jpg'|'B.jpg'],[600000|120000])"},
			oracle: existing("/data/amweb/multimedia/9/A.jpg", "/data/amweb/multimedia/9/B.jpg"),
			mutate: func(cfg *config.MediaConfig) { cfg.Strategy = config.StrategyFirstMatch },
			expectedOut: []string{
				"1\t['C']\tP\t9/A.jpg\tB.jpg\tjpeg\t120000\tmultimedia/9/B.jpg",
			},
			expectedStats: Stats{Records: 1, Rows: 1},
		},
		{
			name:          "largest below minimum",
			input:         []string{"((2),['png'|'png'],'9/A.png',['C'],'P',['A.png'|'B.png'],[49999|100])"},
			oracle:        existing("/data/amweb/multimedia/9/A.png"),
			expectedStats: Stats{Records: 1},
		},
		{
			name:   "size bounds inclusive",
			input:  []string{"((3),['PNG'],'9/A.png',['C'],'P',['A.png'],[50000])", "((4),['JPEG'],'9/B.jpg',['C'],'P',['B.jpg'],[500000])"},
			oracle: existing("/data/amweb/multimedia/9/A.png", "/data/amweb/multimedia/9/B.jpg"),
			expectedOut: []string{
				"3\t['C']\tP\t9/A.png\tA.png\tPNG\t50000\tmultimedia/9/A.png",
				"4\t['C']\tP\t9/B.jpg\tB.jpg\tJPEG\t500000\tmultimedia/9/B.jpg",
			},
			expectedStats: Stats{Records: 2, Rows: 2},
		},
		{
			name:          "unsupported format",
			input:         []string{"((5),['tiff'],'9/A.tif',['C'],'P',['A.tif'],[100000])"},
			oracle:        existing("/data/amweb/multimedia/9/A.tif"),
			expectedStats: Stats{Records: 1},
		},
		{
			name:   "upper case extension resolved to lower case",
			input:  []string{"((6),['jpeg'],'12/34/IMG_1.JPG',['C'],'P',['IMG_1.JPG'],[70000])"},
			oracle: existing("/data/amweb/multimedia/12/34/IMG_1.jpg"),
			expectedOut: []string{
				"6\t['C']\tP\t12/34/IMG_1.JPG\tIMG_1.jpg\tjpeg\t70000\tmultimedia/12/34/IMG_1.jpg",
			},
			expectedStats: Stats{Records: 1, Rows: 1},
		},
		{
			name:   "verbatim path preferred",
			input:  []string{"((6),['jpeg'],'12/34/IMG_1.JPG',['C'],'P',['IMG_1.JPG'],[70000])"},
			oracle: existing("/data/amweb/multimedia/12/34/IMG_1.JPG", "/data/amweb/multimedia/12/34/IMG_1.jpg"),
			expectedOut: []string{
				"6\t['C']\tP\t12/34/IMG_1.JPG\tIMG_1.JPG\tjpeg\t70000\tmultimedia/12/34/IMG_1.JPG",
			},
			expectedStats: Stats{Records: 1, Rows: 1},
		},
		{
			name:          "file missing",
			input:         []string{"((7),['jpeg'],'12/34/IMG_2.JPG',['C'],'P',['IMG_2.JPG'],[70000])"},
			oracle:        existing(),
			expectedDiag:  []string{"/data/amweb/multimedia/12/34/IMG_2.jpg not found"},
			expectedStats: Stats{Records: 1, NotFound: 1},
		},
		{
			name:   "first match keeps walking after missing file",
			input:  []string{"((8),['jpeg'|'jpeg'],'1/A.jpg',['C'],'P',['A.jpg'|'B.jpg'],[300000|200000])"},
			oracle: existing("/data/amweb/multimedia/1/B.jpg"),
			mutate: func(cfg *config.MediaConfig) { cfg.Strategy = config.StrategyFirstMatch },
			expectedOut: []string{
				"8\t['C']\tP\t1/A.jpg\tB.jpg\tjpeg\t200000\tmultimedia/1/B.jpg",
			},
			expectedDiag:  []string{"/data/amweb/multimedia/1/A.jpg not found"},
			expectedStats: Stats{Records: 1, Rows: 1, NotFound: 1},
		},
		{
			name:   "custom roots",
			input:  []string{sampleRecord},
			oracle: existing("/mnt/media/1005/442/X.jpg"),
			mutate: func(cfg *config.MediaConfig) {
				cfg.MediaRoot = "/mnt/media"
				cfg.RelativeRoot = "media"
			},
			expectedOut: []string{
				"1005442\t['Della Ross']\tDella Ross\t1005/442/X.jpg\tX.jpg\tjpeg\t164087\tmedia/1005/442/X.jpg",
			},
			expectedStats: Stats{Records: 1, Rows: 1},
		},
		{
			name: "malformed record stops the run",
			input: []string{
				sampleRecord,
				"((1),['jpeg'|'png'],'a/X.jpg',['D'],'D',['X.jpg'],[100|200])",
				sampleRecord,
			},
			oracle: existing("/data/amweb/multimedia/1005/442/X.jpg"),
			expectedOut: []string{
				"1005442\t['Della Ross']\tDella Ross\t1005/442/X.jpg\tX.jpg\tjpeg\t164087\tmultimedia/1005/442/X.jpg",
			},
			expectError:   true,
			expectedStats: Stats{Records: 2, Rows: 1},
		},
		{
			name: "malformed record skipped on request",
			input: []string{
				"not a record",
				sampleRecord,
			},
			oracle: existing("/data/amweb/multimedia/1005/442/X.jpg"),
			mutate: func(cfg *config.MediaConfig) { cfg.SkipMalformed = true },
			expectedOut: []string{
				"1005442\t['Della Ross']\tDella Ross\t1005/442/X.jpg\tX.jpg\tjpeg\t164087\tmultimedia/1005/442/X.jpg",
			},
			expectedDiag: []string{
				`skipping malformed record at line 1: malformed record: line must start with "((" and end with ")"`,
			},
			expectedStats: Stats{Records: 2, Rows: 1, Skipped: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testMediaConfig(t)
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}

			var out, diag bytes.Buffer

			u, err := New(cfg, tt.oracle, &out, &diag, nil)
			require.NoError(t, err)

			err = u.Process(strings.NewReader(strings.Join(tt.input, "\n") + "\n"))
			if tt.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMalformedRecord)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, tt.expectedOut, splitLines(out.String()))
			assert.Equal(t, tt.expectedDiag, splitLines(diag.String()))
			assert.Equal(t, tt.expectedStats, u.Stats())
		})
	}
}

func TestUnpacker_ProcessReportsLine(t *testing.T) {
	u, err := New(testMediaConfig(t), existing(), &bytes.Buffer{}, &bytes.Buffer{}, nil)
	require.NoError(t, err)

	err = u.Process(strings.NewReader(sampleRecord + "\n((broken\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2:")
}

func TestUnpacker_ProcessLongRecord(t *testing.T) {
	creator := strings.Repeat("D", 5*1024*1024)
	record := "((1005442),['jpeg'],'1005/442/X.jpg',['" + creator + "'],'D',['X.jpg'],[164087])"

	var out bytes.Buffer

	u, err := New(testMediaConfig(t), existing("/data/amweb/multimedia/1005/442/X.jpg"), &out, &bytes.Buffer{}, nil)
	require.NoError(t, err)

	require.NoError(t, u.Process(strings.NewReader(record+"\n"+sampleRecord+"\n")))
	assert.Equal(t, []string{
		"1005442\t['" + creator + "']\tD\t1005/442/X.jpg\tX.jpg\tjpeg\t164087\tmultimedia/1005/442/X.jpg",
		"1005442\t['Della Ross']\tDella Ross\t1005/442/X.jpg\tX.jpg\tjpeg\t164087\tmultimedia/1005/442/X.jpg",
	}, splitLines(out.String()))
	assert.Equal(t, Stats{Records: 2, Rows: 2}, u.Stats())
}

func TestUnpacker_ProcessLineEndings(t *testing.T) {
	row := "1005442\t['Della Ross']\tDella Ross\t1005/442/X.jpg\tX.jpg\tjpeg\t164087\tmultimedia/1005/442/X.jpg\n"

	t.Run("carriage return makes a record malformed", func(t *testing.T) {
		u, err := New(testMediaConfig(t), existing("/data/amweb/multimedia/1005/442/X.jpg"), &bytes.Buffer{}, &bytes.Buffer{}, nil)
		require.NoError(t, err)

		err = u.Process(strings.NewReader(sampleRecord + "\r\n"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformedRecord)
		assert.Contains(t, err.Error(), "line 1:")
	})

	t.Run("last line without newline", func(t *testing.T) {
		var out bytes.Buffer

		u, err := New(testMediaConfig(t), existing("/data/amweb/multimedia/1005/442/X.jpg"), &out, &bytes.Buffer{}, nil)
		require.NoError(t, err)

		require.NoError(t, u.Process(strings.NewReader(sampleRecord)))
		assert.Equal(t, row, out.String())
	})
}

func TestUnpacker_FileSystemOracle(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "1005", "442")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "X.jpg"), []byte("jpeg"), 0644))

	cfg := testMediaConfig(t)
	cfg.MediaRoot = root

	var out, diag bytes.Buffer

	u, err := New(cfg, nil, &out, &diag, nil)
	require.NoError(t, err)

	row, err := u.ProcessRecord(sampleRecord)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "multimedia/1005/442/X.jpg", row.RelativePath)
	assert.Empty(t, diag.String())
}

func TestUnpacker_Qualifies(t *testing.T) {
	u, err := New(testMediaConfig(t), existing(), &bytes.Buffer{}, &bytes.Buffer{}, nil)
	require.NoError(t, err)

	row, err := u.ProcessRecord("((1),['gif'],'a/X.gif',['D'],'D',['X.gif'],[100000])")
	require.NoError(t, err)
	assert.Nil(t, row)
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}

	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
