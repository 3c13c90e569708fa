package alpm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSkipListMatches(t *testing.T) {
	sl := NewSkipList([]string{"etc/pacman.d/*", "boot/initramfs*"})
	assert.True(t, sl.Matches("etc/pacman.d/mirrorlist"))
	assert.True(t, sl.Matches("boot/initramfs-linux.img"))
	assert.False(t, sl.Matches("etc/other.conf"))
}

func TestSkipListEmpty(t *testing.T) {
	sl := NewSkipList(nil)
	assert.False(t, sl.Matches("anything"))
}

func TestSkipListDropsInvalidPattern(t *testing.T) {
	sl := NewSkipList([]string{"[", "etc/valid"})
	assert.True(t, sl.Matches("etc/valid"))
	assert.Len(t, sl.Raw(), 2)
}
