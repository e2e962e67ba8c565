package heuristics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varalys/vibeguard/internal/types"
)

func ruleIDs(fs []types.Finding) []string {
	var out []string
	for _, f := range fs {
		out = append(out, f.Rule)
	}
	return out
}

func count(fs []types.Finding, cat types.Category) int {
	n := 0
	for _, f := range fs {
		if f.Category == cat {
			n++
		}
	}
	return n
}

func TestRateLimitGating(t *testing.T) {
	files := []types.File{
		{Path: "app/api/users/route.ts", Content: "export async function GET() {\n  return Response.json([])\n}\n"},
	}
	fs := ScanHeuristics(files)
	assert.Equal(t, 1, count(fs, types.CatRateLimiting))

	files = append(files, types.File{Path: "lib/limits.ts", Content: `import { Ratelimit } from "@upstash/ratelimit"`})
	fs = ScanHeuristics(files)
	assert.Equal(t, 0, count(fs, types.CatRateLimiting))
}

func TestNoAPIRoutesNoRateLimitFinding(t *testing.T) {
	fs := ScanHeuristics([]types.File{{Path: "src/components/Nav.tsx", Content: "export default function Nav() {}"}})
	assert.Equal(t, 0, count(fs, types.CatRateLimiting))
}

const chatRoute = `import OpenAI from "openai"
const openai = new OpenAI()
export async function POST(req) {
  const { message } = req.body
  try {
    const out = await openai.chat.completions.create({ messages: [{ role: "user", content: req.body.message }] })
    return Response.json(out)
  } catch (err) {
    return Response.json({ error: err.message })
  }
}
`

const agent = `import { exec } from "child_process"
export const tools = [{ name: "shell", execute: (cmd) => exec(cmd) }]
`

func TestAllHeuristicsInOrder(t *testing.T) {
	files := []types.File{
		{Path: "app/api/chat/route.ts", Content: chatRoute},
		{Path: "lib/agent.ts", Content: agent},
	}
	fs := ScanHeuristics(files)
	assert.Equal(t, []string{
		"missing-rate-limiting",
		"missing-csrf-protection",
		"missing-input-validation",
		"missing-security-headers",
		"error-details-in-response",
		"ai-prompt-injection",
		"ai-tool-execution",
	}, ruleIDs(fs))
	for _, f := range fs {
		assert.False(t, f.IsStatic, f.Rule)
		assert.NotEmpty(t, f.ID, f.Rule)
	}

	byRule := map[string]types.Finding{}
	for _, f := range fs {
		byRule[f.Rule] = f
	}
	assert.Equal(t, "app/api/chat/route.ts", byRule["error-details-in-response"].File)
	assert.Equal(t, 9, byRule["error-details-in-response"].Line)
	assert.Equal(t, 6, byRule["ai-prompt-injection"].Line)
	assert.Equal(t, "lib/agent.ts", byRule["ai-tool-execution"].File)
	assert.Equal(t, 2, byRule["ai-tool-execution"].Line)
	assert.Empty(t, byRule["missing-security-headers"].File)

	assert.Equal(t, types.SevHigh, byRule["ai-prompt-injection"].Severity)
	assert.InDelta(t, 0.75, byRule["ai-prompt-injection"].Confidence, 1e-9)
	assert.Equal(t, types.SevLow, byRule["error-details-in-response"].Severity)
	assert.InDelta(t, 0.65, byRule["missing-input-validation"].Confidence, 1e-9)
}

func TestHardenedProjectIsQuiet(t *testing.T) {
	files := []types.File{
		{Path: "middleware.ts", Content: `res.headers.set("Content-Security-Policy", "default-src 'self'")`},
		{Path: "app/api/users/route.ts", Content: `import { getServerSession } from "next-auth"
import { z } from "zod"
import { ratelimit } from "@/lib/ratelimit"
export async function POST(req) {
  const input = z.object({ name: z.string() }).parse(req.body)
  return Response.json({ ok: true })
}
`},
	}
	assert.Empty(t, ScanHeuristics(files))
}

func TestSkippedFilesAreIgnored(t *testing.T) {
	assert.Empty(t, ScanHeuristics(nil))
	fs := ScanHeuristics([]types.File{
		{Path: "node_modules/express/lib/router.js", Content: "app.post('/x', (req, res) => res.send(req.body))"},
	})
	assert.Empty(t, fs)
}

func TestPythonSDKImportAfterOtherImports(t *testing.T) {
	handler := types.File{Path: "app/api/ask/route.ts", Content: "const reply = await complete({ prompt: req.body.question })\n"}
	sdk := types.File{Path: "worker/llm.py", Content: "import os\nimport openai\n\nclient = openai.OpenAI(api_key=os.environ[\"KEY\"])\n"}

	fs := ScanHeuristics([]types.File{handler, sdk})
	assert.Contains(t, ruleIDs(fs), "ai-prompt-injection")

	sdk.Content = "import os\nimport json\n"
	fs = ScanHeuristics([]types.File{handler, sdk})
	assert.NotContains(t, ruleIDs(fs), "ai-prompt-injection")
}

func TestToolCallingWithoutSideEffects(t *testing.T) {
	fs := ScanHeuristics([]types.File{
		{Path: "lib/agent.ts", Content: "export const tools = [{ name: \"weather\" }]\n"},
		{Path: "lib/run.ts", Content: "exec(cmd)\n"},
	})
	assert.Equal(t, 0, count(fs, types.CatAISpecific))
}

func TestCustomHeuristics(t *testing.T) {
	always := Heuristic{ID: "always", Category: types.CatConfiguration, Severity: types.SevInfo, Check: func(*Corpus) (Evidence, bool) { return Evidence{}, true }}
	s := New([]Heuristic{always}, func() string { return "fixed" })
	fs := s.Scan(nil)
	require.Len(t, fs, 1)
	assert.Equal(t, "fixed", fs[0].ID)
}
