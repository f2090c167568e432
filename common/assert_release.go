//go:build !tiledebug

package common

const debugAssertions = false
