package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSkipped(t *testing.T) {
	cases := map[string]bool{
		"node_modules/lodash/index.js": true,
		"web/node_modules/x/y.js":      true,
		".next/server/app/page.js":     true,
		"src/utils/format.test.ts":     true,
		"src/__tests__/login.tsx":      true,
		"pkg/store/store_test.go":      true,
		"dist/bundle.js":               true,
		"src/app/api/users/route.ts":   false,
		"src\\components\\Header.tsx":  false,
		"./lib/db.ts":                  false,
		"public/vendor.min.js":         true,
		"package-lock.json":            true,
	}
	for p, want := range cases {
		assert.Equal(t, want, Skipped(p), p)
	}
}

func TestIsAPIRoute(t *testing.T) {
	assert.True(t, IsAPIRoute("app/api/users/route.ts"))
	assert.True(t, IsAPIRoute("src/pages/api/orders.js"))
	assert.True(t, IsAPIRoute("api/index.py"))
	assert.True(t, IsAPIRoute("server/routes/items.get.ts"))
	assert.False(t, IsAPIRoute("src/components/ApiKeyForm.tsx"))
	assert.False(t, IsAPIRoute("lib/apiClient.ts"))
}

func TestIsPublicRoute(t *testing.T) {
	assert.True(t, IsPublicRoute("app/api/auth/[...nextauth]/route.ts"))
	assert.True(t, IsPublicRoute("app/api/stripe/webhook/route.ts"))
	assert.True(t, IsPublicRoute("app/api/health/route.ts"))
	assert.False(t, IsPublicRoute("app/api/users/route.ts"))
}
