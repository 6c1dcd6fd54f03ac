package main

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type Movement int

const (
	MoveForward Movement = iota
	MoveBackward
	MoveLeft
	MoveRight
)

type Position struct {
	mgl32.Vec3
	Rx, Ry float32
}

// Observer is the point the world streams around. It walks on its own in
// the headless driver.
type Observer struct {
	pos    Position
	up     mgl32.Vec3
	right  mgl32.Vec3
	front  mgl32.Vec3
	wfront mgl32.Vec3
	flying bool
	Speed  float32
}

func NewObserver(pos mgl32.Vec3, rx, ry, speed float32) *Observer {
	o := &Observer{
		Speed:  speed,
		flying: true,
	}
	o.pos = Position{Vec3: pos, Rx: rx, Ry: ry}
	o.updateAngles()
	return o
}

func (o *Observer) Move(dir Movement, delta float32) {
	switch dir {
	case MoveForward:
		if o.flying {
			o.pos.Vec3 = o.pos.Add(o.front.Mul(delta))
		} else {
			o.pos.Vec3 = o.pos.Add(o.wfront.Mul(delta))
		}
	case MoveBackward:
		if o.flying {
			o.pos.Vec3 = o.pos.Sub(o.front.Mul(delta))
		} else {
			o.pos.Vec3 = o.pos.Sub(o.wfront.Mul(delta))
		}
	case MoveLeft:
		o.pos.Vec3 = o.pos.Sub(o.right.Mul(delta))
	case MoveRight:
		o.pos.Vec3 = o.pos.Add(o.right.Mul(delta))
	}
}

// Walk moves along the ground plane for dt seconds at Speed.
func (o *Observer) Walk(dt float64) {
	o.flying = false
	o.Move(MoveForward, o.Speed*float32(dt))
}

func (o *Observer) ChangeAngle(dx, dy float32) {
	o.pos.Rx += dx
	o.pos.Ry = mgl32.Clamp(o.pos.Ry+dy, -89, 89)
	o.updateAngles()
}

func (o *Observer) updateAngles() {
	front := mgl32.Vec3{
		cos(radian(o.pos.Ry)) * cos(radian(o.pos.Rx)),
		sin(radian(o.pos.Ry)),
		cos(radian(o.pos.Ry)) * sin(radian(o.pos.Rx)),
	}
	o.front = front.Normalize()
	o.right = o.front.Cross(mgl32.Vec3{0, 1, 0}).Normalize()
	o.up = o.right.Cross(o.front).Normalize()
	o.wfront = mgl32.Vec3{0, 1, 0}.Cross(o.right).Normalize()
}

func (o *Observer) State() Position {
	return o.pos
}

func (o *Observer) Pos() mgl32.Vec3 {
	return o.pos.Vec3
}

func (o *Observer) SetPos(pos mgl32.Vec3) {
	o.pos.Vec3 = pos
}

func (o *Observer) Front() mgl32.Vec3 {
	return o.front
}

func radian(angle float32) float32 {
	return mgl32.DegToRad(angle)
}

func sin(f float32) float32 {
	return float32(math.Sin(float64(f)))
}

func cos(f float32) float32 {
	return float32(math.Cos(float64(f)))
}
