//go:build !meshdebug

package mesh

const debugAsserts = false
