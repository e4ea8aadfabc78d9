package render

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/terrastream/internal/engine/lighting"
	"github.com/Faultbox/terrastream/internal/engine/shader"
	"github.com/Faultbox/terrastream/internal/logger"
)

// GL is the OpenGL Backend. All methods must run on the thread owning the
// GL context.
type GL struct {
	program uint32

	uModel  int32
	uView   int32
	uProj   int32
	uSunDir int32
	uSunCol int32
	uAmb    int32

	objects map[Handle]*glObject
	next    Handle
}

type glObject struct {
	parent    Handle
	transform mgl32.Mat4
	visible   bool

	vao        uint32
	vbo        uint32
	ebo        uint32
	indexCount int32
}

// NewGL initializes OpenGL state and the terrain shader.
// IMPORTANT: Must be called AFTER the OpenGL context is created!
func NewGL() (*GL, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	version := gl.GoStr(gl.GetString(gl.VERSION))
	rendererName := gl.GoStr(gl.GetString(gl.RENDERER))
	logger.Info("OpenGL initialized",
		zap.String("version", version),
		zap.String("renderer", rendererName),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.ClearColor(0.53, 0.72, 0.87, 1.0) // Sky

	program, err := shader.CompileProgram(terrainVertexSrc, terrainFragmentSrc)
	if err != nil {
		return nil, fmt.Errorf("failed to create terrain shader: %w", err)
	}

	return &GL{
		program: program,
		uModel:  shader.MustGetUniform(program, "uModel"),
		uView:   shader.MustGetUniform(program, "uView"),
		uProj:   shader.MustGetUniform(program, "uProjection"),
		uSunDir: shader.MustGetUniform(program, "uSunDirection"),
		uSunCol: shader.MustGetUniform(program, "uSunColor"),
		uAmb:    shader.MustGetUniform(program, "uAmbient"),
		objects: make(map[Handle]*glObject),
	}, nil
}

// Close releases every object and the shader program.
func (r *GL) Close() {
	logger.Info("closing renderer", zap.Int("objects", len(r.objects)))
	for h := range r.objects {
		r.Destroy(h)
	}
	if r.program != 0 {
		gl.DeleteProgram(r.program)
	}
}

// Resize handles window resize.
func (r *GL) Resize(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

// Begin starts a new frame.
func (r *GL) Begin() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// CreateObject registers an empty, hidden object under parent.
func (r *GL) CreateObject(parent Handle, transform mgl32.Mat4) Handle {
	r.next++
	r.objects[r.next] = &glObject{parent: parent, transform: transform}
	return r.next
}

// AttachMesh uploads the mesh to the GPU, interleaved as
// position(3) uv(2) normal(3).
func (r *GL) AttachMesh(h Handle, positions []mgl32.Vec3, uvs []mgl32.Vec2, normals []mgl32.Vec3, indices []uint32) {
	o := r.object(h)
	if len(uvs) != len(positions) || len(normals) != len(positions) {
		panic(fmt.Sprintf("render: attribute length mismatch: %d positions, %d uvs, %d normals",
			len(positions), len(uvs), len(normals)))
	}
	// Replacing an existing mesh frees the old buffers first.
	o.deleteBuffers()

	vertices := make([]float32, 0, len(positions)*8)
	for i, p := range positions {
		vertices = append(vertices,
			p.X(), p.Y(), p.Z(),
			uvs[i].X(), uvs[i].Y(),
			normals[i].X(), normals[i].Y(), normals[i].Z(),
		)
	}

	gl.GenVertexArrays(1, &o.vao)
	gl.BindVertexArray(o.vao)

	gl.GenBuffers(1, &o.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, o.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, unsafe.Pointer(&vertices[0]), gl.STATIC_DRAW)

	gl.GenBuffers(1, &o.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, o.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, unsafe.Pointer(&indices[0]), gl.STATIC_DRAW)

	// Position attribute (location = 0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 8*4, nil)
	gl.EnableVertexAttribArray(0)

	// UV attribute (location = 1)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, 8*4, unsafe.Pointer(uintptr(3*4)))
	gl.EnableVertexAttribArray(1)

	// Normal attribute (location = 2)
	gl.VertexAttribPointer(2, 3, gl.FLOAT, false, 8*4, unsafe.Pointer(uintptr(5*4)))
	gl.EnableVertexAttribArray(2)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, 0)

	o.indexCount = int32(len(indices))
}

// Destroy releases the object's GPU resources and forgets the handle.
func (r *GL) Destroy(h Handle) {
	r.object(h).deleteBuffers()
	delete(r.objects, h)
}

func (o *glObject) deleteBuffers() {
	if o.vao != 0 {
		gl.DeleteVertexArrays(1, &o.vao)
		o.vao = 0
	}
	if o.vbo != 0 {
		gl.DeleteBuffers(1, &o.vbo)
		o.vbo = 0
	}
	if o.ebo != 0 {
		gl.DeleteBuffers(1, &o.ebo)
		o.ebo = 0
	}
	o.indexCount = 0
}

// SetVisible toggles whether the object is drawn.
func (r *GL) SetVisible(h Handle, visible bool) {
	r.object(h).visible = visible
}

// Draw renders every visible object with the terrain shader.
func (r *GL) Draw(view, projection mgl32.Mat4, sun lighting.Sun) {
	gl.UseProgram(r.program)
	gl.UniformMatrix4fv(r.uView, 1, false, &view[0])
	gl.UniformMatrix4fv(r.uProj, 1, false, &projection[0])
	gl.Uniform3f(r.uSunDir, sun.Direction.X(), sun.Direction.Y(), sun.Direction.Z())
	gl.Uniform3f(r.uSunCol, sun.Color.X(), sun.Color.Y(), sun.Color.Z())
	gl.Uniform1f(r.uAmb, sun.Ambient)

	for _, o := range r.objects {
		if !o.visible || o.indexCount == 0 {
			continue
		}
		model := r.worldTransform(o)
		gl.UniformMatrix4fv(r.uModel, 1, false, &model[0])
		gl.BindVertexArray(o.vao)
		gl.DrawElements(gl.TRIANGLES, o.indexCount, gl.UNSIGNED_INT, nil)
	}
	gl.BindVertexArray(0)
}

// worldTransform composes the object's transform with its ancestors'.
func (r *GL) worldTransform(o *glObject) mgl32.Mat4 {
	m := o.transform
	for p := o.parent; p != Nil; {
		po, ok := r.objects[p]
		if !ok {
			break
		}
		m = po.transform.Mul4(m)
		p = po.parent
	}
	return m
}

func (r *GL) object(h Handle) *glObject {
	o, ok := r.objects[h]
	if !ok {
		panic(fmt.Sprintf("render: unknown handle %d", h))
	}
	return o
}

const terrainVertexSrc = `
#version 410 core

layout (location = 0) in vec3 aPos;
layout (location = 1) in vec2 aUV;
layout (location = 2) in vec3 aNormal;

uniform mat4 uModel;
uniform mat4 uView;
uniform mat4 uProjection;

out vec3 vWorldPos;
out vec3 vNormal;
out vec2 vUV;

void main() {
	vec4 world = uModel * vec4(aPos, 1.0);
	vWorldPos = world.xyz;
	// Chunk transforms are pure translations, normals pass through.
	vNormal = aNormal;
	vUV = aUV;
	gl_Position = uProjection * uView * world;
}
`

const terrainFragmentSrc = `
#version 410 core

in vec3 vWorldPos;
in vec3 vNormal;
in vec2 vUV;

uniform vec3 uSunDirection;
uniform vec3 uSunColor;
uniform float uAmbient;

out vec4 FragColor;

void main() {
	vec3 n = normalize(vNormal);

	// Height and slope driven palette: grass on flats, rock on slopes,
	// snow up high.
	vec3 grass = vec3(0.30, 0.46, 0.22);
	vec3 rock = vec3(0.44, 0.41, 0.38);
	vec3 snow = vec3(0.92, 0.93, 0.95);

	float slope = 1.0 - n.y;
	vec3 albedo = mix(grass, rock, smoothstep(0.15, 0.45, slope));
	albedo = mix(albedo, snow, smoothstep(34.0, 46.0, vWorldPos.y));

	float diffuse = max(dot(n, normalize(uSunDirection)), 0.0);
	vec3 lit = albedo * (uAmbient + diffuse * uSunColor);
	FragColor = vec4(lit, 1.0);
}
`
