package search

import (
	"context"
	"testing"

	"github.com/sha1n/relic-results/internal/domain"
	"github.com/sha1n/relic-results/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture builds a resource with one JVM class, one dex class and two files.
func fixture(t *testing.T) (*workspace.Resource, *Index) {
	t.Helper()
	keep := &domain.AnnotationInfo{Type: "com/app/Keep"}

	main := &domain.ClassInfo{
		Name:        "com/app/Main",
		Annotations: []*domain.AnnotationInfo{keep},
		Fields: []*domain.FieldInfo{
			{Name: "token", Descriptor: "Ljava/lang/String;", Annotations: []*domain.AnnotationInfo{keep}},
		},
		Methods: []*domain.MethodInfo{
			{
				Name:        "run",
				Descriptor:  "()V",
				Annotations: []*domain.AnnotationInfo{keep},
				Instructions: []*domain.Instruction{
					{Index: 0, Opcode: "const-string", Operands: `v0, "Secret-Key"`},
					{Index: 1, Opcode: "const/16", Operands: "v1, 0x2a"},
					{Index: 2, Opcode: "invoke-static", Operands: "{v0}, Lcom/app/Util;->log(Ljava/lang/String;)V"},
					{Index: 3, Opcode: "iget-object", Operands: "v2, p0, Lcom/app/Main;->token:Ljava/lang/String;"},
					{Index: 4, Opcode: "return-void"},
				},
			},
		},
	}
	util := &domain.ClassInfo{
		Name: "com/app/Util",
		Methods: []*domain.MethodInfo{
			{
				Name:       "log",
				Descriptor: "(Ljava/lang/String;)V",
				Instructions: []*domain.Instruction{
					{Index: 0, Opcode: "const-wide", Operands: "v0, 0x2aL"},
					{Index: 1, Opcode: "const-string", Operands: `v2, "secret"`},
				},
			},
		},
	}

	res := workspace.NewResource("app")
	res.PutClass(main)
	res.PutDexClass(workspace.DefaultDexName, util)
	res.PutFile(file("res/values/strings.xml", `<string name="api">secret</string><integer name="n">42</integer>`))
	res.PutFile(file("assets/config.txt", "retries=0x2A timeout=42.5"))

	idx := newMemIndex(t)
	_, err := idx.IndexFiles(res.Files())
	require.NoError(t, err)
	return res, idx
}

func TestExecutor_Text(t *testing.T) {
	res, idx := fixture(t)
	results, err := NewExecutor(res, idx, 0).Run(context.Background(), domain.NewSearch(domain.SearchText, "secret"))
	require.NoError(t, err)
	require.Len(t, results, 3)

	fileLoc, ok := results[0].Location.(*domain.FileLocation)
	require.True(t, ok)
	assert.Equal(t, "res/values/strings.xml", fileLoc.File.Name)
	assert.Equal(t, "secret", results[0].MatchedText)

	mainLoc := results[1].Location.(*domain.ClassLocation)
	assert.Equal(t, "com/app/Main", mainLoc.Class.Name)
	assert.Equal(t, 0, mainLoc.Instruction.Index)
	assert.False(t, results[1].HasMatchedValue())

	utilLoc := results[2].Location.(*domain.ClassLocation)
	assert.Equal(t, "com/app/Util", utilLoc.Class.Name)
	assert.NoError(t, domain.ValidateAll(results))
}

func TestExecutor_Number(t *testing.T) {
	res, idx := fixture(t)
	results, err := NewExecutor(res, idx, 0).Run(context.Background(), domain.NewSearch(domain.SearchNumber, "42"))
	require.NoError(t, err)

	var files, instructions int
	for _, r := range results {
		switch loc := r.Location.(type) {
		case *domain.FileLocation:
			files++
			assert.Equal(t, "42", r.MatchedValue())
		case *domain.ClassLocation:
			instructions++
			assert.NotNil(t, loc.Instruction)
		}
	}
	assert.Equal(t, 2, files, "0x2A in config.txt and 42 in strings.xml")
	assert.Equal(t, 2, instructions, "const/16 0x2a and const-wide 0x2aL")
}

func TestExecutor_NumberRejectsNonNumeric(t *testing.T) {
	res, idx := fixture(t)
	_, err := NewExecutor(res, idx, 0).Run(context.Background(), domain.NewSearch(domain.SearchNumber, "forty"))
	assert.Error(t, err)
}

func TestExecutor_Member(t *testing.T) {
	res, idx := fixture(t)
	exec := NewExecutor(res, idx, 0)

	results, err := exec.Run(context.Background(), domain.NewSearch(domain.SearchMember, "log"))
	require.NoError(t, err)
	require.Len(t, results, 2)
	ref := results[0].Location.(*domain.ClassLocation)
	assert.Equal(t, "com/app/Main", ref.Class.Name)
	assert.Equal(t, "invoke-static", ref.Instruction.Opcode)
	decl := results[1].Location.(*domain.ClassLocation)
	assert.Equal(t, "com/app/Util", decl.Class.Name)
	assert.Nil(t, decl.Instruction)
	assert.Equal(t, "log", decl.Method.Name)

	results, err = exec.Run(context.Background(), domain.NewSearch(domain.SearchMember, "token"))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.NotNil(t, results[0].Location.(*domain.ClassLocation).Field)
	assert.Equal(t, "iget-object", results[1].Location.(*domain.ClassLocation).Instruction.Opcode)
}

func TestExecutor_Annotation(t *testing.T) {
	res, idx := fixture(t)
	for _, query := range []string{"com/app/Keep", "com.app.Keep", "Lcom/app/Keep;"} {
		t.Run(query, func(t *testing.T) {
			results, err := NewExecutor(res, idx, 0).Run(context.Background(), domain.NewSearch(domain.SearchAnnotation, query))
			require.NoError(t, err)
			require.Len(t, results, 3)

			class := results[0].Location.(*domain.ClassLocation)
			assert.Nil(t, class.Field)
			assert.Nil(t, class.Method)
			assert.NotNil(t, results[1].Location.(*domain.ClassLocation).Field)
			assert.NotNil(t, results[2].Location.(*domain.ClassLocation).Method)
		})
	}
}

func TestExecutor_CapsResults(t *testing.T) {
	res, idx := fixture(t)
	results, err := NewExecutor(res, idx, 2).Run(context.Background(), domain.NewSearch(domain.SearchText, "secret"))
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestExecutor_Errors(t *testing.T) {
	res, idx := fixture(t)
	exec := NewExecutor(res, idx, 0)

	_, err := exec.Run(context.Background(), domain.NewSearch(domain.SearchText, "  "))
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = exec.Run(context.Background(), domain.Search{Kind: "regex", Query: "x"})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = exec.Run(ctx, domain.NewSearch(domain.SearchMember, "log"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"42", 42, true},
		{"0x2a", 42, true},
		{"-0x1", -1, true},
		{"0x2aL", 42, true},
		{"3.5", 3.5, true},
		{"1.5f", 1.5, true},
		{"010", 10, true},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseNumber(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNormalizeTypeName(t *testing.T) {
	assert.Equal(t, "com/app/Keep", NormalizeTypeName("Lcom/app/Keep;"))
	assert.Equal(t, "com/app/Keep", NormalizeTypeName("com.app.Keep"))
	assert.Equal(t, "Keep", NormalizeTypeName(" Keep "))
}
