package scenes

import (
	"github.com/automoto/doomerang-netcode/shared/netconfig"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// KeyboardInput reads movement and actions from the keyboard and mouse.
// Aim follows the last movement direction.
type KeyboardInput struct {
	aim mgl64.Vec3
}

func NewKeyboardInput() *KeyboardInput {
	return &KeyboardInput{aim: mgl64.Vec3{0, 0, 1}}
}

func (k *KeyboardInput) Axes() (horizontal, vertical float64) {
	if ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		horizontal--
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		horizontal++
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) || ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		vertical--
	}
	if ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		vertical++
	}
	if horizontal != 0 || vertical != 0 {
		k.aim = mgl64.Vec3{horizontal, 0, vertical}.Normalize()
	}
	return horizontal, vertical
}

func (k *KeyboardInput) Aim() mgl64.Vec3 {
	return k.aim
}

func (k *KeyboardInput) JustPressed(action netconfig.ActionID) bool {
	switch action {
	case netconfig.ActionJump:
		return inpututil.IsKeyJustPressed(ebiten.KeySpace)
	case netconfig.ActionFire:
		return inpututil.IsKeyJustPressed(ebiten.KeyF) ||
			inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft)
	}
	return false
}
