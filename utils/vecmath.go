package utils

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb"
)

// Vec2 二维坐标/向量，屏幕坐标系（y轴向下）
type Vec2 = mgl64.Vec2

// Distance 返回两点之间的欧氏距离
func Distance(a, b Vec2) float64 {
	return a.Sub(b).Len()
}

// Normalize 返回单位向量，零向量返回零向量
func Normalize(v Vec2) Vec2 {
	l := v.Len()
	if l == 0 || math.IsNaN(l) {
		return Vec2{}
	}
	return Vec2{v[0] / l, v[1] / l}
}

// Dot 返回两个向量的点积
func Dot(a, b Vec2) float64 {
	return a.Dot(b)
}

// Rect 轴对齐矩形，边界包含在内
type Rect struct {
	bound orb.Bound
}

// NewRect 由两个角点创建矩形，角点顺序任意
func NewRect(a, b Vec2) Rect {
	return Rect{bound: orb.Bound{
		Min: orb.Point{math.Min(a[0], b[0]), math.Min(a[1], b[1])},
		Max: orb.Point{math.Max(a[0], b[0]), math.Max(a[1], b[1])},
	}}
}

// RectAround 创建以center为中心、宽w高h的矩形
func RectAround(center Vec2, w, h float64) Rect {
	half := Vec2{w / 2, h / 2}
	return NewRect(center.Sub(half), center.Add(half))
}

// Contains 判断点是否在矩形内
func (r Rect) Contains(p Vec2) bool {
	return r.bound.Contains(orb.Point{p[0], p[1]})
}

// Intersects 判断两个矩形是否相交
func (r Rect) Intersects(o Rect) bool {
	return r.bound.Intersects(o.bound)
}

func (r Rect) Min() Vec2 {
	return Vec2{r.bound.Min[0], r.bound.Min[1]}
}

func (r Rect) Max() Vec2 {
	return Vec2{r.bound.Max[0], r.bound.Max[1]}
}

// Size 返回矩形的宽和高
func (r Rect) Size() (float64, float64) {
	return r.bound.Max[0] - r.bound.Min[0], r.bound.Max[1] - r.bound.Min[1]
}

func (r Rect) Center() Vec2 {
	c := r.bound.Center()
	return Vec2{c[0], c[1]}
}
