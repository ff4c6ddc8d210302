package uniform

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/shockwave/internal/engine/camera"
	"github.com/Faultbox/shockwave/internal/engine/ring"
)

// Field names of the shockwave block.
const (
	FieldInvViewProj   = "uInvViewProj"
	FieldCameraPos     = "uCameraPos"
	FieldOrigin        = "uOrigin"
	FieldForward       = "uForward"
	FieldRight         = "uRight"
	FieldUp            = "uUp"
	FieldRadius        = "uRadius"
	FieldThickness     = "uThickness"
	FieldGlowThickness = "uGlowThickness"
	FieldIntensity     = "uIntensity"
	FieldNear          = "uNear"
	FieldFar           = "uFar"
	FieldTanHalfFOV    = "uTanHalfFov"
	FieldAspect        = "uAspect"
	FieldReversedZ     = "uReversedZ"
	FieldOutputMode    = "uOutputMode"
	FieldTime          = "uTime"
	FieldCoreColor     = "uCoreColor"
	FieldGlowColor     = "uGlowColor"
)

// BlockName is the uniform block name the shader declares.
const BlockName = "Shockwave"

// ShockwaveLayout is the constant buffer consumed by the ring shader.
var ShockwaveLayout = MustLayout(
	Field{FieldInvViewProj, Mat4},
	Field{FieldCameraPos, Vec3},
	Field{FieldOrigin, Vec3},
	Field{FieldForward, Vec3},
	Field{FieldRight, Vec3},
	Field{FieldUp, Vec3},
	Field{FieldRadius, Float},
	Field{FieldThickness, Float},
	Field{FieldGlowThickness, Float},
	Field{FieldIntensity, Float},
	Field{FieldNear, Float},
	Field{FieldFar, Float},
	Field{FieldTanHalfFOV, Float},
	Field{FieldAspect, Float},
	Field{FieldReversedZ, Int},
	Field{FieldOutputMode, Int},
	Field{FieldTime, Float},
	Field{FieldCoreColor, Vec4},
	Field{FieldGlowColor, Vec4},
)

// Params is everything the shader needs for one frame.
type Params struct {
	Camera     camera.State
	Origin     r3.Vec
	Ring       ring.State
	ReversedZ  bool
	OutputMode int32
	Time       float32
	CoreColor  [4]float32
	GlowColor  [4]float32
}

// PackShockwave writes params into p for frame and returns the bytes.
// p must have been created from ShockwaveLayout.
func PackShockwave(p *Packet, frame uint64, params Params) ([]byte, error) {
	cam := params.Camera.Sanitize()
	inv, err := cam.InverseViewProjection()
	if err != nil {
		return nil, fmt.Errorf("inverse view-projection: %w", err)
	}
	basis := cam.Basis()
	rs := params.Ring.Normalize()

	p.Begin(frame)
	setters := []error{
		p.SetMat4(FieldInvViewProj, camera.ColumnMajor(inv)),
		p.SetVec3(FieldCameraPos, cam.Position),
		p.SetVec3(FieldOrigin, params.Origin),
		p.SetVec3(FieldForward, basis.Forward),
		p.SetVec3(FieldRight, basis.Right),
		p.SetVec3(FieldUp, basis.Up),
		p.SetFloat(FieldRadius, float32(rs.Radius)),
		p.SetFloat(FieldThickness, float32(rs.Thickness)),
		p.SetFloat(FieldGlowThickness, float32(rs.GlowThickness)),
		p.SetFloat(FieldIntensity, float32(rs.Intensity)),
		p.SetFloat(FieldNear, float32(cam.Near)),
		p.SetFloat(FieldFar, float32(cam.Far)),
		p.SetFloat(FieldTanHalfFOV, float32(cam.TanHalfFOV())),
		p.SetFloat(FieldAspect, float32(cam.Aspect)),
		p.SetBool(FieldReversedZ, params.ReversedZ),
		p.SetInt(FieldOutputMode, params.OutputMode),
		p.SetFloat(FieldTime, params.Time),
		p.SetVec4(FieldCoreColor, params.CoreColor),
		p.SetVec4(FieldGlowColor, params.GlowColor),
	}
	for _, err := range setters {
		if err != nil {
			return nil, err
		}
	}
	return p.Bytes()
}
